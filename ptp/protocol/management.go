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

package protocol

import (
	"encoding/binary"
	"fmt"
	"os"
)

var identity PortIdentity

func init() {
	// store our PID as identity that we use to talk to ptp daemon
	identity.PortNumber = uint16(os.Getpid())
}

const mgmtMsgHeadSize = headerSize + 10 + 4 // Header + TargetPortIdentity + StartingBoundaryHops/BoundaryHops/ActionField/Reserved
const mgmtTLVHeadSize = tlvHeadSize + 2     // TLVHead + ManagementID

// Action indicate the action to be taken on receipt of the PTP message as defined in Table 57
type Action uint8

// actions as in Table 57 Values of the actionField
const (
	GET Action = iota
	SET
	RESPONSE
	COMMAND
	ACKNOWLEDGE
)

// ManagementID is type for Management IDs
type ManagementID uint16

// Management IDs we support, from Table 59 managementId values
const (
	IDNullPTPManagement     ManagementID = 0x0000
	IDDefaultDataSet        ManagementID = 0x2000
	IDCurrentDataSet        ManagementID = 0x2001
	IDParentDataSet         ManagementID = 0x2002
	IDTimePropertiesDataSet ManagementID = 0x2003
	IDPortDataSet           ManagementID = 0x2004
	IDClockAccuracy         ManagementID = 0x200B
	// rest of Management IDs that we don't implement yet
)

// ManagementErrorID is an enum for possible management errors
type ManagementErrorID uint16

// Table 109 ManagementErrorID enumeration
const (
	ErrorResponseTooBig ManagementErrorID = 0x0001 // The requested operation could not fit in a single response message
	ErrorNoSuchID       ManagementErrorID = 0x0002 // The managementId is not recognized
	ErrorWrongLength    ManagementErrorID = 0x0003 // The managementId was identified but the length of the data was wrong
	ErrorWrongValue     ManagementErrorID = 0x0004 // The managementId and length were correct but one or more values were wrong
	ErrorNotSetable     ManagementErrorID = 0x0005 // Some of the variables in the set command were not updated because they are not configurable
	ErrorNotSupported   ManagementErrorID = 0x0006 // The requested operation is not supported in this PTP Instance
	ErrorUnpopulated    ManagementErrorID = 0x0007 // The targetPortIdentity of the PTP management message refers to an entity that is not present in the PTP Instance at the time of the request
	ErrorGeneralError   ManagementErrorID = 0xFFFE // An error occurred that is not covered by other ManagementErrorID values
)

// ManagementErrorIDToString is a map from ManagementErrorID to string
var ManagementErrorIDToString = map[ManagementErrorID]string{
	ErrorResponseTooBig: "RESPONSE_TOO_BIG",
	ErrorNoSuchID:       "NO_SUCH_ID",
	ErrorWrongLength:    "WRONG_LENGTH",
	ErrorWrongValue:     "WRONG_VALUE",
	ErrorNotSetable:     "NOT_SETABLE",
	ErrorNotSupported:   "NOT_SUPPORTED",
	ErrorUnpopulated:    "UNPOPULATED",
	ErrorGeneralError:   "GENERAL_ERROR",
}

func (t ManagementErrorID) String() string {
	s := ManagementErrorIDToString[t]
	if s == "" {
		return fmt.Sprintf("UNKNOWN_ERROR_ID=%d", t)
	}
	return s
}

func (t ManagementErrorID) Error() string {
	return t.String()
}

// ManagementTLVHead Spec Table 58 - Management TLV fields
type ManagementTLVHead struct {
	TLVHead

	ManagementID ManagementID
}

// MgmtID returns ManagementID
func (p *ManagementTLVHead) MgmtID() ManagementID {
	return p.ManagementID
}

// ManagementMsgHead Spec Table 56 - Management message fields
type ManagementMsgHead struct {
	Header

	TargetPortIdentity   PortIdentity
	StartingBoundaryHops uint8
	BoundaryHops         uint8
	ActionField          Action
	Reserved             uint8
}

// Action returns ActionField
func (p *ManagementMsgHead) Action() Action {
	return p.ActionField
}

func mgmtHeadMarshalBinaryTo(p *ManagementMsgHead, b []byte) int {
	n := headerMarshalBinaryTo(&p.Header, b)
	binary.BigEndian.PutUint64(b[n:], uint64(p.TargetPortIdentity.ClockIdentity))
	binary.BigEndian.PutUint16(b[n+8:], p.TargetPortIdentity.PortNumber)
	b[n+10] = p.StartingBoundaryHops
	b[n+11] = p.BoundaryHops
	b[n+12] = byte(p.ActionField)
	b[n+13] = p.Reserved
	return n + 14
}

func unmarshalMgmtHead(p *ManagementMsgHead, b []byte) error {
	if len(b) < mgmtMsgHeadSize {
		return fmt.Errorf("not enough data to decode management message head")
	}
	unmarshalHeader(&p.Header, b)
	n := headerSize
	p.TargetPortIdentity.ClockIdentity = ClockIdentity(binary.BigEndian.Uint64(b[n:]))
	p.TargetPortIdentity.PortNumber = binary.BigEndian.Uint16(b[n+8:])
	p.StartingBoundaryHops = b[n+10]
	p.BoundaryHops = b[n+11]
	p.ActionField = Action(b[n+12])
	p.Reserved = b[n+13]
	return nil
}

// ManagementBodyTLV is implemented by every dataset TLV that can ride inside a Management message.
type ManagementBodyTLV interface {
	MgmtID() ManagementID
	marshalBodyTo([]byte) int
	unmarshalBody([]byte) error
	bodySize() int
}

// DefaultDataSetTLV Spec Table 69 - DEFAULT_DATA_SET management TLV data field
// size = 20 bytes
type DefaultDataSetTLV struct {
	ManagementTLVHead

	SoTSC         uint8
	Reserved0     uint8
	NumberPorts   uint16
	Priority1     uint8
	ClockQuality  ClockQuality
	Priority2     uint8
	ClockIdentity ClockIdentity
	DomainNumber  uint8
	Reserved1     uint8
}

func (t *DefaultDataSetTLV) bodySize() int { return 20 }

func (t *DefaultDataSetTLV) marshalBodyTo(b []byte) int {
	b[0] = t.SoTSC
	b[1] = t.Reserved0
	binary.BigEndian.PutUint16(b[2:], t.NumberPorts)
	b[4] = t.Priority1
	b[5] = byte(t.ClockQuality.ClockClass)
	b[6] = byte(t.ClockQuality.ClockAccuracy)
	binary.BigEndian.PutUint16(b[7:], t.ClockQuality.OffsetScaledLogVariance)
	b[9] = t.Priority2
	binary.BigEndian.PutUint64(b[10:], uint64(t.ClockIdentity))
	b[18] = t.DomainNumber
	b[19] = t.Reserved1
	return 20
}

func (t *DefaultDataSetTLV) unmarshalBody(b []byte) error {
	if len(b) < 20 {
		return fmt.Errorf("not enough data to decode DefaultDataSetTLV")
	}
	t.SoTSC = b[0]
	t.Reserved0 = b[1]
	t.NumberPorts = binary.BigEndian.Uint16(b[2:])
	t.Priority1 = b[4]
	t.ClockQuality.ClockClass = ClockClass(b[5])
	t.ClockQuality.ClockAccuracy = ClockAccuracy(b[6])
	t.ClockQuality.OffsetScaledLogVariance = binary.BigEndian.Uint16(b[7:])
	t.Priority2 = b[9]
	t.ClockIdentity = ClockIdentity(binary.BigEndian.Uint64(b[10:]))
	t.DomainNumber = b[18]
	t.Reserved1 = b[19]
	return nil
}

// CurrentDataSetTLV Spec Table 84 - CURRENT_DATA_SET management TLV data field
// size = 18 bytes
type CurrentDataSetTLV struct {
	ManagementTLVHead

	StepsRemoved     uint16
	OffsetFromMaster TimeInterval
	MeanPathDelay    TimeInterval
}

func (t *CurrentDataSetTLV) bodySize() int { return 18 }

func (t *CurrentDataSetTLV) marshalBodyTo(b []byte) int {
	binary.BigEndian.PutUint16(b, t.StepsRemoved)
	binary.BigEndian.PutUint64(b[2:], uint64(t.OffsetFromMaster))
	binary.BigEndian.PutUint64(b[10:], uint64(t.MeanPathDelay))
	return 18
}

func (t *CurrentDataSetTLV) unmarshalBody(b []byte) error {
	if len(b) < 18 {
		return fmt.Errorf("not enough data to decode CurrentDataSetTLV")
	}
	t.StepsRemoved = binary.BigEndian.Uint16(b)
	t.OffsetFromMaster = TimeInterval(binary.BigEndian.Uint64(b[2:]))
	t.MeanPathDelay = TimeInterval(binary.BigEndian.Uint64(b[10:]))
	return nil
}

// ParentDataSetTLV Spec Table 85 - PARENT_DATA_SET management TLV data field
// size = 32 bytes
type ParentDataSetTLV struct {
	ManagementTLVHead

	ParentPortIdentity                    PortIdentity
	PS                                    uint8
	Reserved                              uint8
	ObservedParentOffsetScaledLogVariance uint16
	ObservedParentClockPhaseChangeRate    uint32
	GrandmasterPriority1                  uint8
	GrandmasterClockQuality               ClockQuality
	GrandmasterPriority2                  uint8
	GrandmasterIdentity                   ClockIdentity
}

func (t *ParentDataSetTLV) bodySize() int { return 32 }

func (t *ParentDataSetTLV) marshalBodyTo(b []byte) int {
	binary.BigEndian.PutUint64(b, uint64(t.ParentPortIdentity.ClockIdentity))
	binary.BigEndian.PutUint16(b[8:], t.ParentPortIdentity.PortNumber)
	b[10] = t.PS
	b[11] = t.Reserved
	binary.BigEndian.PutUint16(b[12:], t.ObservedParentOffsetScaledLogVariance)
	binary.BigEndian.PutUint32(b[14:], t.ObservedParentClockPhaseChangeRate)
	b[18] = t.GrandmasterPriority1
	b[19] = byte(t.GrandmasterClockQuality.ClockClass)
	b[20] = byte(t.GrandmasterClockQuality.ClockAccuracy)
	binary.BigEndian.PutUint16(b[21:], t.GrandmasterClockQuality.OffsetScaledLogVariance)
	b[23] = t.GrandmasterPriority2
	binary.BigEndian.PutUint64(b[24:], uint64(t.GrandmasterIdentity))
	return 32
}

func (t *ParentDataSetTLV) unmarshalBody(b []byte) error {
	if len(b) < 32 {
		return fmt.Errorf("not enough data to decode ParentDataSetTLV")
	}
	t.ParentPortIdentity.ClockIdentity = ClockIdentity(binary.BigEndian.Uint64(b))
	t.ParentPortIdentity.PortNumber = binary.BigEndian.Uint16(b[8:])
	t.PS = b[10]
	t.Reserved = b[11]
	t.ObservedParentOffsetScaledLogVariance = binary.BigEndian.Uint16(b[12:])
	t.ObservedParentClockPhaseChangeRate = binary.BigEndian.Uint32(b[14:])
	t.GrandmasterPriority1 = b[18]
	t.GrandmasterClockQuality.ClockClass = ClockClass(b[19])
	t.GrandmasterClockQuality.ClockAccuracy = ClockAccuracy(b[20])
	t.GrandmasterClockQuality.OffsetScaledLogVariance = binary.BigEndian.Uint16(b[21:])
	t.GrandmasterPriority2 = b[23]
	t.GrandmasterIdentity = ClockIdentity(binary.BigEndian.Uint64(b[24:]))
	return nil
}

// PortDataSetTLV Spec Table 73 - PORT_DATA_SET management TLV data field
// size = 28 bytes
type PortDataSetTLV struct {
	ManagementTLVHead

	PortIdentity            PortIdentity
	PortState               PortState
	LogMinDelayReqInterval  int8
	PeerMeanPathDelay       TimeInterval
	LogAnnounceInterval     int8
	AnnounceReceiptTimeout  uint8
	LogSyncInterval         int8
	DelayMechanism          uint8
	LogMinPdelayReqInterval int8
	VersionNumber           uint8
	Reserved                uint8
}

func (t *PortDataSetTLV) bodySize() int { return 28 }

func (t *PortDataSetTLV) marshalBodyTo(b []byte) int {
	binary.BigEndian.PutUint64(b, uint64(t.PortIdentity.ClockIdentity))
	binary.BigEndian.PutUint16(b[8:], t.PortIdentity.PortNumber)
	b[10] = byte(t.PortState)
	b[11] = byte(t.LogMinDelayReqInterval)
	binary.BigEndian.PutUint64(b[12:], uint64(t.PeerMeanPathDelay))
	b[20] = byte(t.LogAnnounceInterval)
	b[21] = t.AnnounceReceiptTimeout
	b[22] = byte(t.LogSyncInterval)
	b[23] = t.DelayMechanism
	b[24] = byte(t.LogMinPdelayReqInterval)
	b[25] = t.VersionNumber
	b[26] = t.Reserved
	return 28
}

func (t *PortDataSetTLV) unmarshalBody(b []byte) error {
	if len(b) < 27 {
		return fmt.Errorf("not enough data to decode PortDataSetTLV")
	}
	t.PortIdentity.ClockIdentity = ClockIdentity(binary.BigEndian.Uint64(b))
	t.PortIdentity.PortNumber = binary.BigEndian.Uint16(b[8:])
	t.PortState = PortState(b[10])
	t.LogMinDelayReqInterval = int8(b[11])
	t.PeerMeanPathDelay = TimeInterval(binary.BigEndian.Uint64(b[12:]))
	t.LogAnnounceInterval = int8(b[20])
	t.AnnounceReceiptTimeout = b[21]
	t.LogSyncInterval = int8(b[22])
	t.DelayMechanism = b[23]
	t.LogMinPdelayReqInterval = int8(b[24])
	t.VersionNumber = b[25]
	if len(b) > 26 {
		t.Reserved = b[26]
	}
	return nil
}

// TimePropertiesDataSetTLV Spec Table 89 - TIME_PROPERTIES_DATA_SET management TLV data field
// size = 4 bytes
type TimePropertiesDataSetTLV struct {
	ManagementTLVHead

	CurrentUTCOffset int16
	Flags            uint8
	TimeSource       TimeSource
}

func (t *TimePropertiesDataSetTLV) bodySize() int { return 4 }

func (t *TimePropertiesDataSetTLV) marshalBodyTo(b []byte) int {
	binary.BigEndian.PutUint16(b, uint16(t.CurrentUTCOffset))
	b[2] = t.Flags
	b[3] = byte(t.TimeSource)
	return 4
}

func (t *TimePropertiesDataSetTLV) unmarshalBody(b []byte) error {
	if len(b) < 4 {
		return fmt.Errorf("not enough data to decode TimePropertiesDataSetTLV")
	}
	t.CurrentUTCOffset = int16(binary.BigEndian.Uint16(b))
	t.Flags = b[2]
	t.TimeSource = TimeSource(b[3])
	return nil
}

// CurrentUTCOffsetValid reports whether the currentUtcOffset field should be trusted.
func (t *TimePropertiesDataSetTLV) CurrentUTCOffsetValid() bool {
	return t.Flags&uint8(FlagCurrentUtcOffsetValid) != 0
}

// Leap61 reports whether a leap second is to be inserted at the end of the current UTC day.
func (t *TimePropertiesDataSetTLV) Leap61() bool {
	return t.Flags&uint8(FlagLeap61) != 0
}

// Leap59 reports whether a leap second is to be deleted at the end of the current UTC day.
func (t *TimePropertiesDataSetTLV) Leap59() bool {
	return t.Flags&uint8(FlagLeap59) != 0
}

// ManagementErrorStatusTLV spec Table 108 MANAGEMENT_ERROR_STATUS TLV format
type ManagementErrorStatusTLV struct {
	TLVHead

	ManagementErrorID ManagementErrorID
	ManagementID      ManagementID
	Reserved          int32
	DisplayData       PTPText
}

// ManagementMsgErrorStatus is header + ManagementErrorStatusTLV
type ManagementMsgErrorStatus struct {
	ManagementMsgHead
	ManagementErrorStatusTLV
}

// UnmarshalBinary parses []byte and populates struct fields
func (p *ManagementMsgErrorStatus) UnmarshalBinary(b []byte) error {
	if err := unmarshalMgmtHead(&p.ManagementMsgHead, b); err != nil {
		return fmt.Errorf("reading ManagementMsgErrorStatus head: %w", err)
	}
	n := mgmtMsgHeadSize
	if len(b) < n+12 {
		return fmt.Errorf("not enough data to decode ManagementErrorStatusTLV")
	}
	if err := unmarshalTLVHeader(&p.ManagementErrorStatusTLV.TLVHead, b[n:]); err != nil {
		return fmt.Errorf("reading ManagementMsgErrorStatus TLVHead: %w", err)
	}
	p.ManagementErrorStatusTLV.ManagementErrorID = ManagementErrorID(binary.BigEndian.Uint16(b[n+4:]))
	p.ManagementErrorStatusTLV.ManagementID = ManagementID(binary.BigEndian.Uint16(b[n+6:]))
	p.ManagementErrorStatusTLV.Reserved = int32(binary.BigEndian.Uint32(b[n+8:]))

	toRead := int(p.MessageLength) - n - 12
	if toRead <= 0 || len(b) <= n+12 {
		// DisplayData is completely optional
		return nil
	}
	if err := p.DisplayData.UnmarshalBinary(b[n+12:]); err != nil {
		return fmt.Errorf("reading ManagementMsgErrorStatus DisplayData: %w", err)
	}
	return nil
}

// MarshalBinary converts packet to []bytes
func (p *ManagementMsgErrorStatus) MarshalBinary() ([]byte, error) {
	ddBytes := []byte{}
	var err error
	if p.DisplayData != "" {
		ddBytes, err = p.DisplayData.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("writing ManagementMsgErrorStatus DisplayData: %w", err)
		}
	}
	buf := make([]byte, mgmtMsgHeadSize+12+len(ddBytes))
	n := mgmtHeadMarshalBinaryTo(&p.ManagementMsgHead, buf)
	tlvHeadMarshalBinaryTo(&p.ManagementErrorStatusTLV.TLVHead, buf[n:])
	binary.BigEndian.PutUint16(buf[n+4:], uint16(p.ManagementErrorStatusTLV.ManagementErrorID))
	binary.BigEndian.PutUint16(buf[n+6:], uint16(p.ManagementErrorStatusTLV.ManagementID))
	binary.BigEndian.PutUint32(buf[n+8:], uint32(p.ManagementErrorStatusTLV.Reserved))
	copy(buf[n+12:], ddBytes)
	return buf, nil
}

// MarshalBinaryToBuf writes the packet into w, failing if w cannot hold it.
func (p *ManagementMsgErrorStatus) MarshalBinaryToBuf(w interface{ Write([]byte) (int, error) }) error {
	b, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Management is a generic Management message: a common head plus whichever dataset TLV it carries.
type Management struct {
	ManagementMsgHead

	TLV ManagementBodyTLV
}

// MarshalBinaryToBuf writes the packet into w, failing if w cannot hold it.
func (p *Management) MarshalBinaryToBuf(w interface{ Write([]byte) (int, error) }) error {
	b, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// MarshalBinary converts packet to []bytes
func (p *Management) MarshalBinary() ([]byte, error) {
	bodySize := 0
	if p.TLV != nil {
		bodySize = p.TLV.bodySize()
	}
	buf := make([]byte, mgmtMsgHeadSize+mgmtTLVHeadSize+bodySize)
	n := mgmtHeadMarshalBinaryTo(&p.ManagementMsgHead, buf)
	tlvHeadMarshalBinaryTo(&TLVHead{TLVType: TLVManagement, LengthField: uint16(2 + bodySize)}, buf[n:])
	binary.BigEndian.PutUint16(buf[n+4:], uint16(mgmtIDOf(p.TLV)))
	if p.TLV != nil {
		p.TLV.marshalBodyTo(buf[n+mgmtTLVHeadSize:])
	}
	return buf, nil
}

func mgmtIDOf(tlv ManagementBodyTLV) ManagementID {
	if tlv == nil {
		return IDNullPTPManagement
	}
	return tlv.MgmtID()
}

// UnmarshalBinary parses []byte and populates struct fields
func (p *Management) UnmarshalBinary(b []byte) error {
	if err := unmarshalMgmtHead(&p.ManagementMsgHead, b); err != nil {
		return fmt.Errorf("reading Management head: %w", err)
	}
	n := mgmtMsgHeadSize
	tlvHead := TLVHead{}
	if err := unmarshalTLVHeader(&tlvHead, b[n:]); err != nil {
		return fmt.Errorf("reading Management TLVHead: %w", err)
	}
	if tlvHead.TLVType != TLVManagement {
		return fmt.Errorf("got TLV type %q (0x%02x) instead of %q (0x%02x)", tlvHead.TLVType, uint16(tlvHead.TLVType), TLVManagement, uint16(TLVManagement))
	}
	if len(b) < n+mgmtTLVHeadSize {
		return fmt.Errorf("not enough data to decode management TLV id")
	}
	mgmtID := ManagementID(binary.BigEndian.Uint16(b[n+4:]))
	tlv, err := newManagementBodyTLV(mgmtID)
	if err != nil {
		return err
	}
	if err := tlv.unmarshalBody(b[n+mgmtTLVHeadSize:]); err != nil {
		return err
	}
	p.TLV = tlv
	return nil
}

func newManagementBodyTLV(id ManagementID) (ManagementBodyTLV, error) {
	switch id {
	case IDDefaultDataSet:
		return &DefaultDataSetTLV{ManagementTLVHead: ManagementTLVHead{ManagementID: id}}, nil
	case IDCurrentDataSet:
		return &CurrentDataSetTLV{ManagementTLVHead: ManagementTLVHead{ManagementID: id}}, nil
	case IDParentDataSet:
		return &ParentDataSetTLV{ManagementTLVHead: ManagementTLVHead{ManagementID: id}}, nil
	case IDPortDataSet:
		return &PortDataSetTLV{ManagementTLVHead: ManagementTLVHead{ManagementID: id}}, nil
	case IDTimePropertiesDataSet:
		return &TimePropertiesDataSetTLV{ManagementTLVHead: ManagementTLVHead{ManagementID: id}}, nil
	default:
		return nil, fmt.Errorf("unsupported management TLV 0x%x", id)
	}
}

func decodeMgmtPacket(b []byte) (Packet, error) {
	if len(b) < mgmtMsgHeadSize+tlvHeadSize {
		return nil, fmt.Errorf("not enough data to decode management message")
	}
	tlvHead := TLVHead{}
	if err := unmarshalTLVHeader(&tlvHead, b[mgmtMsgHeadSize:]); err != nil {
		return nil, err
	}
	if tlvHead.TLVType == TLVManagementErrorStatus {
		errorPacket := new(ManagementMsgErrorStatus)
		if err := errorPacket.UnmarshalBinary(b); err != nil {
			return nil, fmt.Errorf("got Management Error in response but failed to decode it: %w", err)
		}
		return errorPacket, nil
	}

	packet := new(Management)
	if err := packet.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return packet, nil
}

// newManagementRequest builds a bare GET request for the given dataset.
func newManagementRequest(id ManagementID) *Management {
	return &Management{
		ManagementMsgHead: ManagementMsgHead{
			Header: Header{
				SdoIDAndMsgType:    NewSdoIDAndMsgType(MessageManagement, 0),
				Version:            Version,
				SourcePortIdentity: identity,
				LogMessageInterval: MgmtLogMessageInterval,
			},
			TargetPortIdentity:   DefaultTargetPortIdentity,
			StartingBoundaryHops: 0,
			BoundaryHops:         0,
			ActionField:          GET,
		},
		TLV: requestMarker(id),
	}
}

// requestMarker is a zero-body ManagementBodyTLV used only to carry a ManagementID in a GET request.
type requestMarker ManagementID

func (r requestMarker) MgmtID() ManagementID       { return ManagementID(r) }
func (requestMarker) marshalBodyTo([]byte) int     { return 0 }
func (requestMarker) unmarshalBody([]byte) error   { return fmt.Errorf("requestMarker cannot be decoded into") }
func (requestMarker) bodySize() int                { return 0 }

// DefaultDataSetRequest prepares request packet for DEFAULT_DATA_SET request
func DefaultDataSetRequest() *Management { return newManagementRequest(IDDefaultDataSet) }

// CurrentDataSetRequest prepares request packet for CURRENT_DATA_SET request
func CurrentDataSetRequest() *Management { return newManagementRequest(IDCurrentDataSet) }

// ParentDataSetRequest prepares request packet for PARENT_DATA_SET request
func ParentDataSetRequest() *Management { return newManagementRequest(IDParentDataSet) }

// PortDataSetRequest prepares request packet for PORT_DATA_SET request
func PortDataSetRequest() *Management { return newManagementRequest(IDPortDataSet) }

// TimePropertiesDataSetRequest prepares request packet for TIME_PROPERTIES_DATA_SET request
func TimePropertiesDataSetRequest() *Management { return newManagementRequest(IDTimePropertiesDataSet) }
