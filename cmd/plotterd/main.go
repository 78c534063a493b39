package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/tarm/serial"

	"github.com/Bloeckchengrafik/convention25/plotter"
	"github.com/Bloeckchengrafik/convention25/swarm"
	"github.com/Bloeckchengrafik/convention25/units"
)

// Port names of the plotter hardware on the swarm bus.
const (
	portController = "ftSwarm400"
	portX          = "ftSwarm400.M4"
	portY          = "ftSwarm400.M3"
	portTool0      = "ftSwarm400.M2"
	portTool1      = "ftSwarm400.M1"
	portEmergency  = "ftSwarm400.EM"
)

func main() {
	log.SetFlags(log.Lshortfile)

	port := flag.String("port", "/dev/ttyUSB0", "Serial port of the swarm bus.")
	baud := flag.Int("baud", 115200, "Baud rate of the swarm bus.")
	addr := flag.String("addr", ":9091", "Address to bind the plotter server to.")
	dir := flag.String("dir", "./printfiles", "Print-file directory to use.")
	configPath := flag.String("config", "config.json", "Configuration file to use.")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("load config: ", err)
	}

	ratio, err := units.GearRatio(cfg.MotorTeeth, cfg.SinkTeeth)
	if err != nil {
		log.Fatal("gear ratio: ", err)
	}

	s, err := serial.OpenPort(&serial.Config{Name: *port, Baud: *baud})
	if err != nil {
		log.Fatal("open serial port: ", err)
	}

	conn := swarm.NewConn(s)
	if _, err = conn.Send(portController, "setMicrostepMode", "2"); err != nil {
		log.Fatal("set microstep mode: ", err)
	}

	timing := &plotter.ToolTiming{
		LeadTime:        cfg.LeadTime,
		LagTime:         cfg.LagTime,
		RetractionSteps: cfg.RetractionSteps,
		RetractionSpeed: cfg.RetractionSpeed,
	}

	trap := plotter.NewTrap(conn)
	trap.Observe(swarm.NewSwitch(conn, portEmergency))

	p := plotter.New(plotter.Config{
		X: swarm.NewStepper(conn, portX),
		Y: swarm.NewStepper(conn, portY),
		Tools: []plotter.Actuator{
			swarm.NewStepper(conn, portTool0),
			swarm.NewStepper(conn, portTool1),
		},
		Trap:        trap,
		GearRatio:   ratio,
		PlanarSpeed: cfg.PlanarSpeed,
		FlowRate:    cfg.FlowRate,
		Timing:      timing,
	})

	api := newAPI(p, cfg, *configPath, *dir)

	err = http.ListenAndServe(*addr, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		log.Printf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
		api.ServeHTTP(w, req)
	}))
	if err != nil {
		log.Fatal(err)
	}
}
