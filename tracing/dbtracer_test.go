package tracing

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/nakacristo/caminos-lib-sub002/datarecording"
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl *gomock.Controller
		backend  *MockDataRecorder
		tracer   *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backend = NewMockDataRecorder(mockCtrl)
		backend.EXPECT().CreateTable(PacketTableName, packetTableEntry{})

		tracer = NewDBTracer(backend)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should insert a row per packet", func() {
		backend.EXPECT().InsertData(PacketTableName, packetTableEntry{
			ID:              "pkt-1",
			Source:          0,
			Destination:     3,
			Size:            2,
			Hops:            2,
			CreationCycle:   4,
			InjectionCycle:  5,
			CompletionCycle: 14,
			Latency:         10,
		})

		tracer.RecordPacket(messaging.PacketRecord{
			ID:              "pkt-1",
			Destination:     3,
			Size:            2,
			Hops:            2,
			CreationCycle:   4,
			InjectionCycle:  5,
			CompletionCycle: 14,
		})
	})

	It("should flush on terminate", func() {
		backend.EXPECT().Flush()

		tracer.Terminate()
	})
})

var _ = Describe("DBTracer with SQLite", func() {
	var (
		path     string
		recorder datarecording.DataRecorder
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "packets")
		recorder = datarecording.New(path)
	})

	AfterEach(func() {
		os.Remove(path + ".sqlite3")
	})

	It("should write rows a reader can decode", func() {
		tracer := NewDBTracer(recorder)
		tracer.RecordPacket(messaging.PacketRecord{
			ID:              "pkt-7",
			Source:          1,
			Destination:     2,
			Size:            1,
			Hops:            1,
			CreationCycle:   3,
			InjectionCycle:  3,
			CompletionCycle: 8,
		})
		tracer.Terminate()
		Expect(recorder.Close()).To(Succeed())

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		MapPacketTable(reader)
		rows, total, err := reader.Query(context.Background(),
			PacketTableName, datarecording.QueryParams{})

		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1))
		Expect(rows).To(ConsistOf(&messaging.PacketRecord{
			ID:              "pkt-7",
			Source:          1,
			Destination:     2,
			Size:            1,
			Hops:            1,
			CreationCycle:   3,
			InjectionCycle:  3,
			CompletionCycle: 8,
		}))
	})
})
