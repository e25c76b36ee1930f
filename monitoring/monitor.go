// Package monitoring serves a running simulation over HTTP so that it can be
// inspected and paused from outside.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/network/udp"
	"github.com/sarchlab/wavesim/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
	"go.uber.org/zap"
)

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	engine     sim.Engine
	nodes      *network.NodeContainer
	portNumber int
	logger     *zap.Logger

	server *http.Server
	url    string

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor(logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{logger: logger}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warn("monitor port not allowed, using a random port",
			zap.Int("port", portNumber))

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterNodes registers the nodes to inspect.
func (m *Monitor) RegisterNodes(nodes *network.NodeContainer) {
	m.nodes = nodes
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router of the monitoring API.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/list_nodes", m.listNodes)
	r.HandleFunc("/api/node/{id}", m.nodeDetails)
	r.HandleFunc("/api/field/{json}", m.fieldValue)
	r.HandleFunc("/api/hangdetector/buffers", m.hangDetectorBuffers)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts serving in the background and returns the URL.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", "localhost:"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", fmt.Errorf("starting monitor: %w", err)
	}

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor stopped", zap.Error(err))
		}
	}()

	return m.url, nil
}

// URL returns the address the server listens on, or an empty string before
// StartServer.
func (m *Monitor) URL() string {
	return m.url
}

// OpenBrowser opens the monitor in the default browser.
func (m *Monitor) OpenBrowser() error {
	if m.url == "" {
		return errors.New("monitor is not started")
	}

	return browser.OpenURL(m.url)
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

// inspect runs fn while the simulation is between events.
func (m *Monitor) inspect(fn func()) {
	if m.engine == nil {
		fn()
		return
	}

	m.engine.Inspect(fn)
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%.10f}", float64(m.engine.Now()))
}

type nodeRsp struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Z       float64  `json:"z"`
	Addrs   []string `json:"addrs"`
	Devices []string `json:"devices"`
	Apps    []string `json:"apps"`
}

func (m *Monitor) listNodes(w http.ResponseWriter, _ *http.Request) {
	rsp := []nodeRsp{}

	m.inspect(func() {
		if m.nodes == nil {
			return
		}

		for _, n := range m.nodes.Nodes() {
			rsp = append(rsp, describeNode(n))
		}
	})

	m.writeJSON(w, rsp)
}

func describeNode(n *network.Node) nodeRsp {
	pos := n.Position()
	r := nodeRsp{
		ID:      n.ID(),
		Name:    n.Name(),
		X:       pos.X,
		Y:       pos.Y,
		Z:       pos.Z,
		Addrs:   []string{},
		Devices: []string{},
		Apps:    []string{},
	}

	for _, iface := range n.Interfaces() {
		r.Addrs = append(r.Addrs, iface.Prefix.String())
	}

	for _, d := range n.Devices() {
		r.Devices = append(r.Devices, d.Name())
	}

	for _, a := range n.Applications() {
		r.Apps = append(r.Apps, a.Name())
	}

	return r
}

func (m *Monitor) nodeDetails(w http.ResponseWriter, r *http.Request) {
	node := m.findNodeOr404(w, mux.Vars(r)["id"])
	if node == nil {
		return
	}

	buf := bytes.NewBuffer(nil)

	var err error
	m.inspect(func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(node)
		serializer.SetMaxDepth(1)

		err = serializer.Serialize(buf)
	})

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = buf.WriteTo(w)
}

type fieldReq struct {
	NodeID    string `json:"node_id,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	node := m.findNodeOr404(w, req.NodeID)
	if node == nil {
		return
	}

	buf := bytes.NewBuffer(nil)

	var entryErr, serializeErr error
	m.inspect(func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(node)
		serializer.SetMaxDepth(1)

		entryErr = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
		if entryErr != nil {
			return
		}

		serializeErr = serializer.Serialize(buf)
	})

	if entryErr != nil {
		http.Error(w, entryErr.Error(), http.StatusBadRequest)
		return
	}

	if serializeErr != nil {
		http.Error(w, serializeErr.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = buf.WriteTo(w)
}

func (m *Monitor) findNodeOr404(w http.ResponseWriter, id string) *network.Node {
	i, err := strconv.Atoi(id)
	if err != nil || m.nodes == nil || i < 0 || i >= m.nodes.N() {
		http.Error(w, "Node not found", http.StatusNotFound)
		return nil
	}

	return m.nodes.Get(i)
}

func (m *Monitor) buffers() []sim.Buffer {
	var buffers []sim.Buffer

	if m.nodes == nil {
		return buffers
	}

	for _, n := range m.nodes.Nodes() {
		proto, ok := n.Transport().(*udp.Protocol)
		if !ok {
			continue
		}

		for _, s := range proto.Sockets() {
			if !s.IsClosed() {
				buffers = append(buffers, s.RxBuffer())
			}
		}
	}

	return buffers
}

type bufferRsp struct {
	Buffer  string `json:"buffer"`
	Level   int    `json:"level"`
	Cap     int    `json:"cap"`
	Dropped int    `json:"dropped"`
}

func (m *Monitor) hangDetectorBuffers(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := buffersParseParams(r)
	if err != nil {
		http.Error(w, "Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	rsp := []bufferRsp{}

	m.inspect(func() {
		selected := sortAndSelectBuffers(m.buffers(), sortMethod, limit, offset)
		for _, b := range selected {
			rsp = append(rsp, bufferRsp{
				Buffer:  b.Name(),
				Level:   b.Size(),
				Cap:     b.Capacity(),
				Dropped: b.Dropped(),
			})
		}
	})

	m.writeJSON(w, rsp)
}

func buffersParseParams(r *http.Request) (
	sortMethod string,
	limit, offset int,
	err error,
) {
	sortMethod = r.URL.Query().Get("sort")
	if sortMethod == "" {
		sortMethod = "percent"
	}

	if sortMethod != "level" && sortMethod != "percent" {
		return "", 0, 0, fmt.Errorf(
			"invalid sort method: %s, allowed values are `level` and `percent`",
			sortMethod)
	}

	limit, err = intParam(r, "limit")
	if err != nil {
		return "", 0, 0, err
	}

	offset, err = intParam(r, "offset")
	if err != nil {
		return "", 0, 0, err
	}

	return sortMethod, limit, offset, nil
}

func intParam(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}

	return v, nil
}

func bufferPercent(b sim.Buffer) float64 {
	return float64(b.Size()) / float64(b.Capacity())
}

// sortAndSelectBuffers orders buffers by level or fill percentage, largest
// first. A zero limit keeps everything after offset.
func sortAndSelectBuffers(
	buffers []sim.Buffer,
	sortMethod string,
	limit, offset int,
) []sim.Buffer {
	sorted := make([]sim.Buffer, len(buffers))
	copy(sorted, buffers)

	sort.SliceStable(sorted, func(i, j int) bool {
		sizeI, sizeJ := sorted[i].Size(), sorted[j].Size()
		percentI, percentJ := bufferPercent(sorted[i]), bufferPercent(sorted[j])

		if sortMethod == "level" {
			if sizeI != sizeJ {
				return sizeI > sizeJ
			}

			return percentI > percentJ
		}

		if percentI != percentJ {
			return percentI > percentJ
		}

		return sizeI > sizeJ
	})

	if offset > len(sorted) {
		offset = len(sorted)
	}

	end := len(sorted)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return sorted[offset:end]
}

type progressBarRsp struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	rsp := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		rsp = append(rsp, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.logger.Warn("writing response", zap.Error(err))
	}
}
