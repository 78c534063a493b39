package main

import (
	"encoding/json"
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
	"github.com/gorilla/mux"

	"github.com/Bloeckchengrafik/convention25/plotter"
	"github.com/Bloeckchengrafik/convention25/toolpath"
)

type api struct {
	http.Handler

	p *plotter.Plotter

	dataDir    string
	configPath string

	sse *sse.Server

	mx       sync.Mutex
	cfg      config
	printing string
}

func newAPI(p *plotter.Plotter, cfg config, configPath, dir string) *api {
	r := mux.NewRouter()

	a := &api{
		Handler:    r,
		p:          p,
		cfg:        cfg,
		configPath: configPath,
		dataDir:    dir,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
	}

	fs := http.FileServer(http.Dir(dir))
	r.PathPrefix("/files/").Handler(http.StripPrefix("/files", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case "GET":
			fs.ServeHTTP(w, req)
		case "PUT":
			a.putFile(w, req)
		case "DELETE":
			a.deleteFile(w, req)
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})))

	r.HandleFunc("/api/files", a.listFiles).Methods("GET")
	r.HandleFunc("/api/print", a.print).Methods("POST")
	r.HandleFunc("/api/state", a.state).Methods("GET")
	r.HandleFunc("/api/jog", a.jog).Methods("POST")
	r.HandleFunc("/api/config/flowrate", a.getFlowRate).Methods("GET")
	r.HandleFunc("/api/config/flowrate", a.setFlowRate).Methods("POST")
	r.HandleFunc("/api/config/tooltiming", a.setToolTiming).Methods("POST")
	r.HandleFunc("/api/console", a.console)

	r.PathPrefix("/events/").Handler(a.sse)
	go a.stateLoop()

	return a
}

type stateMessage struct {
	State    string `json:"state"`
	Printing string `json:"printing,omitempty"`
}

func (a *api) currentState() stateMessage {
	a.mx.Lock()
	printing := a.printing
	a.mx.Unlock()
	return stateMessage{State: a.p.State().String(), Printing: printing}
}

func (a *api) stateLoop() {
	var last stateMessage
	for range time.NewTicker(500 * time.Millisecond).C {
		msg := a.currentState()
		if msg == last {
			continue
		}
		last = msg
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("ERROR: marshal json: %+v", err)
			continue
		}
		a.sse.SendMessage("/events/state", sse.SimpleMessage(string(data)))
	}
}

func safePath(base, name string) (bool, string) {
	if filepath.Separator != '/' && strings.ContainsRune(name, filepath.Separator) {
		log.Println("invalid path '" + name + "'")
		return false, ""
	}
	dir := base
	if dir == "" {
		dir = "."
	}
	fullName := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+name)))
	return true, fullName
}

func (a *api) state(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.currentState())
}

func (a *api) print(w http.ResponseWriter, req *http.Request) {
	file := req.URL.Query().Get("file")
	if file == "" {
		http.Error(w, "missing file parameter", http.StatusBadRequest)
		return
	}
	ok, name := safePath(a.dataDir, file)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	data, err := ioutil.ReadFile(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	commands, err := toolpath.FromGCode(string(data))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	commands = toolpath.Optimize(commands)

	a.mx.Lock()
	if a.printing != "" {
		a.mx.Unlock()
		http.Error(w, "already printing another file", http.StatusConflict)
		return
	}
	a.printing = file
	a.mx.Unlock()

	go func() {
		err := a.p.SubmitJob(commands)
		if err != nil {
			log.Printf("ERROR: print %s: %+v", file, err)
		} else {
			log.Printf("print %s: done", file)
		}
		a.mx.Lock()
		a.printing = ""
		a.mx.Unlock()
	}()

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "submitted", "file": file})
}

func (a *api) jog(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	steps, err := strconv.Atoi(q.Get("steps"))
	if err != nil {
		http.Error(w, "invalid steps", http.StatusBadRequest)
		return
	}
	speed, err := strconv.ParseFloat(q.Get("speed"), 64)
	if err != nil {
		http.Error(w, "invalid speed", http.StatusBadRequest)
		return
	}

	err = a.p.Jog(q.Get("actuator"), steps, speed)
	if err == plotter.ErrBusy {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
}

func (a *api) getFlowRate(w http.ResponseWriter, req *http.Request) {
	a.mx.Lock()
	rate := a.cfg.FlowRate
	a.mx.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]float64{"flow_rate": rate})
}

func (a *api) setFlowRate(w http.ResponseWriter, req *http.Request) {
	rate, err := strconv.ParseFloat(req.URL.Query().Get("value"), 64)
	if err != nil || rate < 0 || rate > 10 {
		http.Error(w, "flow rate must be between 0.0 and 10.0", http.StatusBadRequest)
		return
	}

	if err := a.p.SetFlowRate(rate); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	a.mx.Lock()
	a.cfg.FlowRate = rate
	err = a.cfg.save(a.configPath)
	a.mx.Unlock()
	if err != nil {
		log.Printf("ERROR: save config: %+v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (a *api) setToolTiming(w http.ResponseWriter, req *http.Request) {
	var body struct {
		LeadTime        float64 `json:"lead_time"`
		LagTime         float64 `json:"lag_time"`
		RetractionSteps int     `json:"retraction_steps"`
		RetractionSpeed float64 `json:"retraction_speed"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := a.p.SetToolTiming(plotter.ToolTiming{
		LeadTime:        body.LeadTime,
		LagTime:         body.LagTime,
		RetractionSteps: body.RetractionSteps,
		RetractionSpeed: body.RetractionSpeed,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	a.mx.Lock()
	a.cfg.LeadTime = body.LeadTime
	a.cfg.LagTime = body.LagTime
	a.cfg.RetractionSteps = body.RetractionSteps
	a.cfg.RetractionSpeed = body.RetractionSpeed
	err = a.cfg.save(a.configPath)
	a.mx.Unlock()
	if err != nil {
		log.Printf("ERROR: save config: %+v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (a *api) listFiles(w http.ResponseWriter, req *http.Request) {
	entries, err := ioutil.ReadDir(a.dataDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(names)
}

func (a *api) putFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, strings.TrimPrefix(req.URL.Path, "/"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err = os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err = ioutil.WriteFile(name, data, 0644); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (a *api) deleteFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, strings.TrimPrefix(req.URL.Path, "/"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := os.Remove(name); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
