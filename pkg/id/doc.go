// Package id provides the 128-bit, time-ordered identifiers attached to
// audit notifications.
//
// An ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence], so
// byte order is chronological order and IDs minted within one millisecond
// still increase strictly. The Generator pins to the last seen millisecond
// when the clock regresses and waits for the next millisecond if the sequence
// would overflow.
//
//	g := id.NewGenerator()
//	ev := g.Next()
//	s := ev.String()       // 32 hex chars
//	back, _ := id.Parse(s) // == ev
package id
