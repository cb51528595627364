package main

import (
	"encoding/json"
	"errors"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mastercactapus/gcinterp/gcode"
)

// maxBodySize caps uploaded programs and run bodies.
const maxBodySize = 32 << 20

// holdTimeout bounds how long a held run waits for its first subscriber.
const holdTimeout = 10 * time.Second

type api struct {
	http.Handler
	dataDir string
	sse     *sse.Server
	logger  *log.Logger
	maxBody int64

	mx   sync.Mutex
	runs map[string]*run
	wg   sync.WaitGroup
}

type run struct {
	t *tally

	state  string
	lines  int
	err    error
	events []*sse.Message
	done   chan struct{}
}

// RunStatus is the JSON form of a run.
type RunStatus struct {
	ID     string         `json:"id"`
	State  string         `json:"state"`
	Lines  int            `json:"lines"`
	Counts map[string]int `json:"counts"`
	Error  string         `json:"error,omitempty"`
}

const (
	stateLoading   = "loading"
	stateCompleted = "completed"
	stateFailed    = "failed"
)

func newAPI(dir string, logger *log.Logger) *api {
	r := mux.NewRouter()

	a := &api{
		Handler: r,
		dataDir: dir,
		logger:  logger,
		maxBody: maxBodySize,
		runs:    make(map[string]*run),
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
	}

	fs := http.StripPrefix("/data", http.FileServer(http.Dir(dir)))
	r.PathPrefix("/data/").Handler(fs).Methods("GET")
	r.PathPrefix("/data/").HandlerFunc(a.putFile).Methods("PUT")
	r.PathPrefix("/data/").HandlerFunc(a.deleteFile).Methods("DELETE")

	r.HandleFunc("/api/run", a.run).Methods("POST")
	r.HandleFunc("/api/runs/{id}", a.getRun).Methods("GET")

	r.HandleFunc("/events/{id}", a.events).Methods("GET")

	return a
}

// Close waits for in-flight runs and their subscribers, then stops the
// event server.
func (a *api) Close() {
	a.wg.Wait()
	a.sse.Shutdown()
}

func safePath(base, name string) (bool, string) {
	if filepath.Separator != '/' && strings.ContainsRune(name, filepath.Separator) {
		log.Println("invalid path '" + name + "'")
		return false, ""
	}
	dir := string(base)
	if dir == "" {
		dir = "."
	}
	fullName := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+name)))
	return true, fullName
}

func eventChannel(id string) string { return "/events/" + id }

// emit records msg for replay and sends it to live subscribers.
func (a *api) emit(rn *run, channel string, msg *sse.Message) {
	a.mx.Lock()
	rn.events = append(rn.events, msg)
	a.mx.Unlock()
	a.sse.SendMessage(channel, msg)
}

// waitSubscriber blocks until channel has a client or the timeout passes.
func (a *api) waitSubscriber(channel string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for !a.sse.HasChannel(channel) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}

func (a *api) run(w http.ResponseWriter, req *http.Request) {
	id := uuid.New().String()
	rn := &run{t: newTally(), state: stateLoading, done: make(chan struct{})}
	channel := eventChannel(id)

	in := rn.t.interpreter(a.logger).
		OnData(func(ln gcode.Line) {
			a.mx.Lock()
			rn.lines++
			a.mx.Unlock()
			a.emit(rn, channel, sse.NewMessage("", ln.Text, "data"))
		}).
		OnEnd(func(lines []gcode.Line) {
			a.emit(rn, channel, sse.NewMessage("", strconv.Itoa(len(lines)), "end"))
		})

	cb := func(lines []gcode.Line, err error) {
		if err != nil {
			log.Printf("ERROR: run %s: %+v", id, err)
			a.emit(rn, channel, sse.NewMessage("", err.Error(), "error"))
		}

		a.mx.Lock()
		if err != nil {
			rn.state = stateFailed
			rn.err = err
		} else {
			rn.state = stateCompleted
			rn.lines = len(lines)
		}
		a.mx.Unlock()

		close(rn.done)
		a.sse.CloseChannel(channel)
		a.wg.Done()
	}

	var start func()
	if name := req.URL.Query().Get("file"); name != "" {
		ok, fullName := safePath(a.dataDir, name)
		if !ok {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		start = func() { in.LoadFromFile(fullName, cb) }
	} else {
		data, err := ioutil.ReadAll(http.MaxBytesReader(w, req.Body, a.maxBody))
		if err != nil {
			log.Printf("ERROR: read body: %+v", err)
			http.Error(w, err.Error(), bodyErrorStatus(err))
			return
		}
		start = func() { in.LoadFromString(string(data), cb) }
	}

	a.mx.Lock()
	a.runs[id] = rn
	a.mx.Unlock()
	a.wg.Add(1)

	// hold=1 delays the load until someone listens on /events/{id}
	if req.URL.Query().Get("hold") == "1" {
		go func() {
			a.waitSubscriber(channel, holdTimeout)
			start()
		}()
	} else {
		start()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	err := json.NewEncoder(w).Encode(map[string]string{"id": id})
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

// events streams a run's events. Finished runs are replayed in full and
// the response ends; running ones are streamed live from the point the
// client joins until the run finishes.
func (a *api) events(w http.ResponseWriter, req *http.Request) {
	a.mx.Lock()
	rn, ok := a.runs[mux.Vars(req)["id"]]
	var replay []*sse.Message
	finished := ok && rn.state != stateLoading
	if finished {
		replay = append(replay, rn.events...)
	}
	a.mx.Unlock()

	if !ok {
		http.NotFound(w, req)
		return
	}
	if finished {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		for _, msg := range replay {
			io.WriteString(w, msg.String())
		}
		return
	}

	a.wg.Add(1)
	go a.closeWhenDone(rn, req.URL.Path, req.Context().Done())
	a.sse.ServeHTTP(w, req)
}

// closeWhenDone closes channel once rn finishes, covering subscribers that
// registered after the run's own CloseChannel.
func (a *api) closeWhenDone(rn *run, channel string, gone <-chan struct{}) {
	defer a.wg.Done()
	select {
	case <-rn.done:
	case <-gone:
		return
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if a.sse.HasChannel(channel) {
			a.sse.CloseChannel(channel)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func bodyErrorStatus(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (a *api) status(id string) (*RunStatus, bool) {
	a.mx.Lock()
	defer a.mx.Unlock()
	rn, ok := a.runs[id]
	if !ok {
		return nil, false
	}
	s := &RunStatus{
		ID:     id,
		State:  rn.state,
		Lines:  rn.lines,
		Counts: rn.t.Counts(),
	}
	if rn.err != nil {
		s.Error = rn.err.Error()
	}
	return s, true
}

func (a *api) getRun(w http.ResponseWriter, req *http.Request) {
	s, ok := a.status(mux.Vars(req)["id"])
	if !ok {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(s)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

func (a *api) putFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, strings.TrimPrefix(req.URL.Path, "/data"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	err := os.MkdirAll(filepath.Dir(name), 0755)
	if err != nil {
		log.Printf("ERROR: mkdir '%s': %+v", filepath.Dir(name), err)
		http.Error(w, err.Error(), 500)
		return
	}
	f, err := os.Create(name)
	if err != nil {
		log.Printf("ERROR: create '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
	defer f.Close()
	_, err = io.Copy(f, http.MaxBytesReader(w, req.Body, a.maxBody))
	if err != nil {
		log.Printf("ERROR: write '%s': %+v", name, err)
		os.Remove(name)
		status := 500
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return
	}
}

func (a *api) deleteFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, strings.TrimPrefix(req.URL.Path, "/data"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	err := os.Remove(name)
	if err != nil {
		log.Printf("ERROR: delete '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
}
