package monitor_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hyperfifo/capture"
	"github.com/sarchlab/hyperfifo/capture/store"
	"github.com/sarchlab/hyperfifo/gateware/analyzer"
	"github.com/sarchlab/hyperfifo/gateware/events"
	"github.com/sarchlab/hyperfifo/monitor"
)

var _ = Describe("Server", func() {
	var (
		s       *store.Store
		srv     *monitor.Server
		handler http.Handler
	)

	get := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		return rec
	}

	BeforeEach(func() {
		var err error
		s, err = store.Open(filepath.Join(GinkgoT().TempDir(), "capture.db"))
		Expect(err).NotTo(HaveOccurred())

		_, err = s.Put(
			capture.NewEvent(1, events.CaptureStartFull),
			capture.NewPacket(5, []byte{0x2D, 0x00, 0x10}),
			capture.NewPacket(9, []byte{0xC3, 0x80, 0x06, 0x00, 0x01}),
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.SetMeta("run", "r1")).To(Succeed())

		srv = monitor.NewServer(s)
		handler = srv.Handler()
	})

	AfterEach(func() {
		Expect(s.Close()).To(Succeed())
	})

	It("should report database statistics", func() {
		rec := get("/api/stats")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var view monitor.StatsView
		Expect(json.Unmarshal(rec.Body.Bytes(), &view)).To(Succeed())
		Expect(view.Records).To(Equal(3))
		Expect(view.Meta).To(HaveKeyWithValue("run", "r1"))
		Expect(view.Buffer).To(BeNil())
	})

	It("should include live buffer counters when available", func() {
		srv.WithStats(func() analyzer.Stats {
			return analyzer.Stats{BytesOut: 42}
		})

		var view monitor.StatsView
		Expect(json.Unmarshal(get("/api/stats").Body.Bytes(), &view)).To(Succeed())

		Expect(view.Buffer).NotTo(BeNil())
		Expect(view.Buffer.BytesOut).To(Equal(uint64(42)))
	})

	It("should return one record", func() {
		rec := get("/api/packets/2")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var view monitor.RecordView
		Expect(json.Unmarshal(rec.Body.Bytes(), &view)).To(Succeed())
		Expect(view).To(Equal(monitor.RecordView{
			Seq:       2,
			Kind:      "packet",
			Timestamp: 5,
			Length:    3,
			Data:      "2d0010",
		}))
	})

	It("should name events", func() {
		var view monitor.RecordView
		Expect(json.Unmarshal(get("/api/packets/1").Body.Bytes(), &view)).To(Succeed())

		Expect(view.Kind).To(Equal("event"))
		Expect(view.Event).To(Equal("CAPTURE_START_FULL"))
	})

	It("should answer 404 for unknown records", func() {
		Expect(get("/api/packets/77").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/packets/abc").Code).To(Equal(http.StatusNotFound))
	})

	It("should page through records", func() {
		var views []monitor.RecordView
		Expect(json.Unmarshal(get("/api/packets?from=2&limit=1").Body.Bytes(), &views)).
			To(Succeed())

		Expect(views).To(HaveLen(1))
		Expect(views[0].Seq).To(Equal(uint64(2)))

		Expect(get("/api/packets?limit=-1").Code).To(Equal(http.StatusBadRequest))
	})

	It("should stream the capture as pcap", func() {
		rec := get("/api/pcap?packets_only=true")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/vnd.tcpdump.pcap"))

		body, err := io.ReadAll(rec.Body)
		Expect(err).NotTo(HaveOccurred())

		records, err := store.ReadPCAP(bytes.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
	})
})
