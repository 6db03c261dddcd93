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

// Package mgmt implements the non-blocking adapter that cycles a PTP
// management client through the two datasets the control loop needs
// (PORT_DATA_SET, TIME_PROPERTIES_DATA_SET) over a local datagram
// transport, built on ptp/protocol's management TLVs.
package mgmt

import (
	"fmt"
	"time"

	"github.com/facebookincubator/ptp2sys/ptp/protocol"
)

// Cursor identifies which dataset the adapter is currently requesting.
type Cursor int

// possible values of Cursor
const (
	CursorPortDS Cursor = iota
	CursorTimePropsDS
	CursorDone
)

// Outcome is the result of one non-blocking Poll call.
type Outcome int

// possible values of Outcome
const (
	// OutcomePending means the round has not yet finished; call Poll again.
	OutcomePending Outcome = iota
	// OutcomeComplete means the cursor reached Done this call; the cursor
	// has been reset to its starting position for the next round.
	OutcomeComplete
)

// Transport is the local datagram channel a ManagementClient polls. Recv
// returns (nil, nil) on a timeout with no error, distinguishing "nothing
// arrived yet" from a transport failure.
type Transport interface {
	Send(b []byte) error
	Recv(timeout time.Duration) ([]byte, error)
}

// Result holds the fields the control loop's LeapCoordinator needs,
// updated in place as rounds complete.
type Result struct {
	PortState         protocol.PortState
	PortStateValid    bool
	SyncOffsetSeconds int32
	LeapPending       int // -1 delete, 0 none, +1 insert
	TimePropsValid    bool
}

// Client cycles PortDS -> TimePropsDS -> Done, matching spec.md's
// ManagementClient adapter state machine. It is not safe for concurrent use;
// the control loop calls Poll from its single sequential iteration.
type Client struct {
	Transport Transport

	// NeedSync, when false, skips the PortDS leg entirely (the caller does
	// not need to wait for the peer to reach MASTER/SLAVE).
	NeedSync bool
	// ForcedOffset, when true, skips the TimePropsDS leg (the UTC offset
	// was forced on the command line).
	ForcedOffset bool

	cursor   Cursor
	inFlight bool
	Result   Result
}

// NewClient builds a Client starting at the first leg its configuration
// requires.
func NewClient(t Transport, needSync, forcedOffset bool) *Client {
	c := &Client{Transport: t, NeedSync: needSync, ForcedOffset: forcedOffset}
	c.cursor = c.firstCursor()
	return c
}

func (c *Client) firstCursor() Cursor {
	if c.NeedSync {
		return CursorPortDS
	}
	if !c.ForcedOffset {
		return CursorTimePropsDS
	}
	return CursorDone
}

// Poll advances the state machine by at most one request/response
// exchange, waiting up to timeout for a response if one is in flight.
func (c *Client) Poll(timeout time.Duration) (Outcome, error) {
	for {
		switch c.cursor {
		case CursorDone:
			c.cursor = c.firstCursor()
			return OutcomeComplete, nil
		case CursorPortDS:
			advanced, err := c.pollPortDS(timeout)
			if err != nil || !advanced {
				return OutcomePending, err
			}
			c.cursor = CursorTimePropsDS
			if c.ForcedOffset {
				c.cursor = CursorDone
			}
		case CursorTimePropsDS:
			advanced, err := c.pollTimePropsDS(timeout)
			if err != nil || !advanced {
				return OutcomePending, err
			}
			c.cursor = CursorDone
		}
	}
}

func (c *Client) pollPortDS(timeout time.Duration) (bool, error) {
	if !c.inFlight {
		req := protocol.PortDataSetRequest()
		b, err := req.MarshalBinary()
		if err != nil {
			return false, fmt.Errorf("encoding PORT_DATA_SET request: %w", err)
		}
		if err := c.Transport.Send(b); err != nil {
			return false, fmt.Errorf("sending PORT_DATA_SET request: %w", err)
		}
		c.inFlight = true
	}

	resp, err := c.Transport.Recv(timeout)
	if err != nil {
		c.inFlight = false
		return false, fmt.Errorf("receiving PORT_DATA_SET response: %w", err)
	}
	if resp == nil {
		// timeout: leave in-flight cleared so the next call re-sends
		c.inFlight = false
		return false, nil
	}
	c.inFlight = false

	tlv, err := decodeSingleTLV(resp, protocol.IDPortDataSet)
	if err != nil {
		return false, fmt.Errorf("decoding PORT_DATA_SET response: %w", err)
	}
	ds, ok := tlv.(*protocol.PortDataSetTLV)
	if !ok {
		return false, fmt.Errorf("PORT_DATA_SET response carried unexpected TLV type %T", tlv)
	}

	c.Result.PortState = ds.PortState
	if ds.PortState != protocol.PortStateMaster && ds.PortState != protocol.PortStateSlave {
		// not yet synchronized; stay pinned on PortDS
		c.Result.PortStateValid = false
		return false, nil
	}
	c.Result.PortStateValid = true
	return true, nil
}

func (c *Client) pollTimePropsDS(timeout time.Duration) (bool, error) {
	if !c.inFlight {
		req := protocol.TimePropertiesDataSetRequest()
		b, err := req.MarshalBinary()
		if err != nil {
			return false, fmt.Errorf("encoding TIME_PROPERTIES_DATA_SET request: %w", err)
		}
		if err := c.Transport.Send(b); err != nil {
			return false, fmt.Errorf("sending TIME_PROPERTIES_DATA_SET request: %w", err)
		}
		c.inFlight = true
	}

	resp, err := c.Transport.Recv(timeout)
	if err != nil {
		c.inFlight = false
		return false, fmt.Errorf("receiving TIME_PROPERTIES_DATA_SET response: %w", err)
	}
	if resp == nil {
		c.inFlight = false
		return false, nil
	}
	c.inFlight = false

	tlv, err := decodeSingleTLV(resp, protocol.IDTimePropertiesDataSet)
	if err != nil {
		return false, fmt.Errorf("decoding TIME_PROPERTIES_DATA_SET response: %w", err)
	}
	ds, ok := tlv.(*protocol.TimePropertiesDataSetTLV)
	if !ok {
		return false, fmt.Errorf("TIME_PROPERTIES_DATA_SET response carried unexpected TLV type %T", tlv)
	}

	c.Result.SyncOffsetSeconds = int32(ds.CurrentUTCOffset)
	switch {
	case ds.Leap61():
		c.Result.LeapPending = 1
	case ds.Leap59():
		c.Result.LeapPending = -1
	default:
		c.Result.LeapPending = 0
	}
	c.Result.TimePropsValid = true
	return true, nil
}

// decodeSingleTLV decodes a management response packet and validates that it
// carries exactly the dataset requested.
func decodeSingleTLV(b []byte, want protocol.ManagementID) (protocol.ManagementBodyTLV, error) {
	packet, err := protocol.DecodePacket(b)
	if err != nil {
		return nil, err
	}
	m, ok := packet.(*protocol.Management)
	if !ok {
		return nil, fmt.Errorf("response is not a management RESPONSE packet (got %T)", packet)
	}
	if m.Action() != protocol.RESPONSE {
		return nil, fmt.Errorf("response has action %v, want RESPONSE", m.Action())
	}
	if m.TLV == nil {
		return nil, fmt.Errorf("response carried no management TLV")
	}
	if m.TLV.MgmtID() != want {
		return nil, fmt.Errorf("response carried dataset 0x%04x, want 0x%04x", uint16(m.TLV.MgmtID()), uint16(want))
	}
	return m.TLV, nil
}
