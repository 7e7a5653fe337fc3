package adaptor

import "github.com/ponyo877/vivachat/client/transport/memory"

type Usecase interface {
	Authenticate(header string) error
	Stats() memory.Stats
	Subscribers(destination string) int
}
