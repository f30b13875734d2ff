package model

type BusTime struct {
	ID   string `json:"id"`
	Time string `json:"time"`
}
