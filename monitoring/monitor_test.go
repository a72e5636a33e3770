package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/nakacristo/caminos-lib-sub002/sim"
)

type sampleComponent struct {
	name    string
	buffers []sim.Buffer
}

func (c *sampleComponent) Name() string {
	return c.name
}

func (c *sampleComponent) Buffers() []sim.Buffer {
	return c.buffers
}

func (c *sampleComponent) State() string {
	return "idle"
}

func newSampleComponent(name string, levels ...int) *sampleComponent {
	c := &sampleComponent{name: name}

	for i, level := range levels {
		b := sim.NewBuffer(name+".Buf"+string(rune('A'+i)), 4)
		for j := 0; j < level; j++ {
			b.Push(j)
		}

		c.buffers = append(c.buffers, b)
	}

	return c
}

var _ = Describe("Monitor", func() {
	var (
		mockCtrl *gomock.Controller
		run      *MockControllable
		m        *Monitor
		handler  http.Handler
	)

	get := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

		return rec
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		run = NewMockControllable(mockCtrl)
		run.EXPECT().InspectState(gomock.Any()).
			Do(func(f func()) { f() }).
			AnyTimes()

		m = NewMonitor()
		m.RegisterRun(run, 100)
		m.RegisterComponent(newSampleComponent("R0", 1, 4))
		m.RegisterComponent(newSampleComponent("R1", 2))
		handler = m.Handler()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should register components and their buffers", func() {
		Expect(m.components).To(HaveLen(2))
		Expect(m.buffers).To(HaveLen(3))
	})

	It("should report the current cycle", func() {
		run.EXPECT().Now().Return(sim.Cycle(42))

		rec := get("/api/now")

		Expect(rec.Body.String()).To(Equal(`{"now":42}`))
	})

	It("should pause and continue once", func() {
		run.EXPECT().Pause().Times(1)
		run.EXPECT().Continue().Times(1)

		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))
		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))
	})

	It("should list components", func() {
		var names []string

		rec := get("/api/list_components")
		Expect(json.Unmarshal(rec.Body.Bytes(), &names)).To(Succeed())

		Expect(names).To(Equal([]string{"R0", "R1"}))
	})

	It("should report the state of a component", func() {
		var rsp map[string]string

		rec := get("/api/state/R1")
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())

		Expect(rsp["state"]).To(Equal("idle"))
	})

	It("should return 404 for unknown components", func() {
		Expect(get("/api/state/R9").Code).
			To(Equal(http.StatusNotFound))
		Expect(get("/api/component/R9").Code).
			To(Equal(http.StatusNotFound))
	})

	It("should serialize a component", func() {
		rec := get("/api/component/R0")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	Context("when detecting hangs", func() {
		decode := func(rec *httptest.ResponseRecorder) []bufferRsp {
			var rsp []bufferRsp
			Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())

			return rsp
		}

		It("should list the fullest buffers first", func() {
			rsp := decode(get("/api/hangdetector/buffers?sort=level"))

			Expect(rsp).To(Equal([]bufferRsp{
				{"R0.BufB", 4, 4},
				{"R1.BufA", 2, 4},
				{"R0.BufA", 1, 4},
			}))
		})

		It("should page the buffers", func() {
			rsp := decode(get("/api/hangdetector/buffers?limit=1&offset=1"))

			Expect(rsp).To(Equal([]bufferRsp{{"R1.BufA", 2, 4}}))
		})

		It("should return nothing past the end", func() {
			rsp := decode(get("/api/hangdetector/buffers?offset=10"))

			Expect(rsp).To(BeEmpty())
		})

		It("should reject unknown sort methods", func() {
			rec := get("/api/hangdetector/buffers?sort=name")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	It("should follow the cycle in the progress bar", func() {
		run.EXPECT().Now().Return(sim.Cycle(30))

		var bars []ProgressBarSnapshot

		rec := get("/api/progress")
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())

		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("Cycles"))
		Expect(bars[0].Total).To(Equal(uint64(100)))
		Expect(bars[0].Finished).To(Equal(uint64(30)))
	})

	It("should remove completed progress bars", func() {
		bar := m.CreateProgressBar("Packets", 10)
		bar.IncrementInProgress(3)
		bar.MoveInProgressToFinished(2)

		Expect(bar.Snapshot().Finished).To(Equal(uint64(2)))
		Expect(bar.Snapshot().InProgress).To(Equal(uint64(1)))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(HaveLen(1))
	})

	It("should report resources", func() {
		var rsp resourceRsp

		rec := get("/api/resource")
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())

		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve the page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(strings.HasPrefix(rec.Body.String(), "<!DOCTYPE html>")).
			To(BeTrue())
	})
})
