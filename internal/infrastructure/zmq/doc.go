// Package zmq provides the ZeroMQ subscriber used to read the Quake Live
// stats stream.
//
// This package manages:
//   - A SUB socket authenticating with PLAIN credentials ("stats" user)
//   - A monitor PAIR socket reporting connection lifecycle events
//   - Receive pumps turning both sockets into Go channels
//   - Explicit connect, disconnect and teardown
//
// # Architecture
//
// libzmq sockets are not safe for concurrent use, so each socket is guarded
// by its own RWMutex. Two pump goroutines poll the sockets in short bounded
// steps under the read lock and forward what they receive:
//
//	Quake Live server → SUB socket   → Messages() <-chan string
//	                    monitor PAIR → Events()   <-chan monitor.Event
//
// Configure, Connect, Disconnect and Close take the write lock, so they
// run between pump steps and never race a receive.
//
// # Usage
//
//	sub, err := zmq.New(zmq.Options{Logger: log})
//	if err != nil {
//	    return err
//	}
//	defer sub.Close()
//
//	if err := sub.Configure(cfg.ZMQ.Password, cfg.ZMQ.Identity); err != nil {
//	    return err
//	}
//	if err := sub.Connect(cfg.ZMQ.Endpoint); err != nil {
//	    return err
//	}
//	for msg := range sub.Messages() {
//	    fmt.Println(msg)
//	}
//
// Connection state arrives on Events(); the stats supervisor decides when
// to reconnect and when to give up.
package zmq
