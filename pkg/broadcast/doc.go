// Package broadcast provides typed one-to-many message fan-out.
//
// MemoryBroadcaster never blocks the publisher: each subscriber has a buffered
// channel and a subscriber that falls behind is dropped. With WithReplayLast
// the most recent message is delivered to late subscribers, which suits
// "current value" streams such as session state.
//
//	b := broadcast.NewMemoryBroadcaster[string](16, broadcast.WithReplayLast())
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	_ = b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"})
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Data)
//	}
//
// A subscription ends when its context is cancelled, when Close is called on
// it, when it falls behind, or when the broadcaster is closed.
package broadcast
