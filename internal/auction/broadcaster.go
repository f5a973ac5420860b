package auction

//go:generate mockgen -source=broadcaster.go -destination=mock_broadcaster_test.go -package=auction

// Broadcaster fans events out to subscribers.  Emission is fire and
// forget; a broadcaster must not block the calling request.
type Broadcaster interface {
	EmitToAuction(auctionID, event string, payload any)
	EmitGlobal(event string, payload any)
}

// Broadcasters emits every event to each broadcaster in order.
type Broadcasters []Broadcaster

func (bs Broadcasters) EmitToAuction(auctionID, event string, payload any) {
	for _, b := range bs {
		b.EmitToAuction(auctionID, event, payload)
	}
}

func (bs Broadcasters) EmitGlobal(event string, payload any) {
	for _, b := range bs {
		b.EmitGlobal(event, payload)
	}
}
