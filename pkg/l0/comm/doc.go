// Package comm provides L0 framing and frame hand-off between tasks.
package comm

// L0 frames are exchanged between the MCU firmware and the host over
// byte oriented links (UART, TCP, UDP, etc.):
//
//	0x7B payload... 0x7D
//
// Payload is at most MaxPayloadSize bytes and is never escaped, so a
// payload containing the end marker can't be told apart from the end
// of the frame by a stream scanner. Decoding expects a link already
// delivers one framed unit at a time; Assembler in SegmentScan mode
// adds a best-effort resynchronization above that.
//
// Every link direction owns one Queue, shared by exactly one producer
// task and one consumer task:
//
//	Reader -> Queue -> Processor -> Handler
//	producer -> Queue -> Writer -> sink
