package usecase

import "github.com/ponyo877/vivachat/client/transport/memory"

type Broker interface {
	Stats() memory.Stats
	Subscribers(name string) int
}
