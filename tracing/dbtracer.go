package tracing

import (
	"github.com/nakacristo/caminos-lib-sub002/datarecording"
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
)

// PacketTableName is the table that DBTracers write to.
const PacketTableName = "packets"

type packetTableEntry struct {
	ID              string
	Source          int
	Destination     int
	Size            int
	Hops            int
	CreationCycle   uint64
	InjectionCycle  uint64
	CompletionCycle uint64
	Latency         uint64
}

// DBTracer stores every completed packet as a row of a DataRecorder.
type DBTracer struct {
	backend datarecording.DataRecorder
}

// NewDBTracer creates a new DBTracer and the table it writes to.
func NewDBTracer(backend datarecording.DataRecorder) *DBTracer {
	backend.CreateTable(PacketTableName, packetTableEntry{})

	return &DBTracer{backend: backend}
}

// RecordPacket buffers a row for the packet.
func (t *DBTracer) RecordPacket(r messaging.PacketRecord) {
	t.backend.InsertData(PacketTableName, packetTableEntry{
		ID:              r.ID,
		Source:          r.Source,
		Destination:     r.Destination,
		Size:            r.Size,
		Hops:            r.Hops,
		CreationCycle:   r.CreationCycle,
		InjectionCycle:  r.InjectionCycle,
		CompletionCycle: r.CompletionCycle,
		Latency:         r.Latency(),
	})
}

// Terminate flushes the buffered rows.
func (t *DBTracer) Terminate() {
	t.backend.Flush()
}

// MapPacketTable lets a reader decode the rows written by a DBTracer.
func MapPacketTable(reader datarecording.DataReader) {
	reader.MapTable(PacketTableName, messaging.PacketRecord{})
}
