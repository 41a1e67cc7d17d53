package dto

import commonDto "anoa.com/donorhub/pkg/dto"

type OnlineResponse struct {
	Count int                        `json:"count"`
	Users []commonDto.AuthorResponse `json:"users"`
}
