package resource

import "github.com/oneilljw/homecontrol/pkg/gateway"

type GarageDoorResource struct {
	LeftOpen  bool `json:"leftOpen"`
	RightOpen bool `json:"rightOpen"`
}

func NewGarageDoor(s gateway.DoorState) *GarageDoorResource {
	return &GarageDoorResource{
		LeftOpen:  s.LeftOpen,
		RightOpen: s.RightOpen,
	}
}
