// Package gobayeux implements a Bayeux protocol session client: a
// long-lived, event-driven endpoint that multiplexes publish/subscribe
// traffic from many application channels over a single WebSocket.
//
// Create a session with NewSession, passing a Delegate to receive
// lifecycle notifications, and call Connect:
//
//	session, err := gobayeux.NewSession("wss://example.com/bayeux", myDelegate)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := session.Connect(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// Subscribe to a channel pattern, including glob patterns like
// "/weather/*" and "/weather/**":
//
//	err := session.Subscribe(ctx, "/weather/*", func(m gobayeux.Message) {
//		fmt.Println(string(m.Data))
//	})
//
// Extensions can attach metadata to outgoing and incoming messages by
// implementing MessageExtender and registering it with UseExtension:
//
//	type Example struct{}
//	func (e *Example) Registered(name string, session *gobayeux.Session) {}
//	func (e *Example) Unregistered()                                     {}
//	func (e *Example) Outgoing(m *gobayeux.Message) {
//		switch m.Channel {
//		case gobayeux.MetaHandshake:
//			ext := m.GetExt(true)
//			ext["example"] = true
//		}
//	}
//	func (e *Example) Incoming(m *gobayeux.Message) {}
//
//	session.UseExtension("example", &Example{})
//
// The session owns one transport at a time and reconnects automatically
// according to server-issued advice; subscriptions survive reconnects
// without the application re-registering callbacks.
package gobayeux
