/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// defaultManagementSocket is the local PTP management datagram endpoint,
// matching where ptp4l listens by default.
const defaultManagementSocket = "/var/run/ptp4l"

// unixgramTransport implements mgmt.Transport over a local PTP management
// datagram socket.
type unixgramTransport struct {
	conn *net.UnixConn
}

// dialManagementSocket connects to the management endpoint at path. It always
// dials; in forced-offset mode buildLeapCoordinator does not call it at all.
func dialManagementSocket(path string) (*unixgramTransport, error) {
	local := fmt.Sprintf("/var/run/phc2sysd.%d", os.Getpid())
	laddr := &net.UnixAddr{Name: local, Net: "unixgram"}
	raddr := &net.UnixAddr{Name: path, Net: "unixgram"}
	conn, err := net.DialUnix("unixgram", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("dialing management socket %q: %w", path, err)
	}
	return &unixgramTransport{conn: conn}, nil
}

func (t *unixgramTransport) Send(b []byte) error {
	_, err := t.conn.Write(b)
	return err
}

func (t *unixgramTransport) Recv(timeout time.Duration) ([]byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	buf := make([]byte, 1500)
	n, err := t.conn.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	return buf[:n], nil
}

func (t *unixgramTransport) Close() error {
	path := t.conn.LocalAddr().String()
	err := t.conn.Close()
	_ = os.Remove(path)
	return err
}
