package main

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(req *http.Request) bool { return true },
}

// console is a line-oriented maintenance shell over a websocket. Commands:
//
//	state
//	jog <actuator> <steps> <speed>
//	flowrate <value>
func (a *api) console(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Println("ERROR: upgrade:", err)
		return
	}
	defer ws.Close()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		reply := a.consoleCommand(strings.Fields(strings.TrimSpace(string(data))))
		err = ws.WriteMessage(websocket.TextMessage, []byte(reply))
		if err != nil {
			log.Println("ERROR: console write:", err)
			return
		}
	}
}

func (a *api) consoleCommand(fields []string) string {
	if len(fields) == 0 {
		return "error: empty command"
	}
	switch fields[0] {
	case "state":
		return "state " + a.p.State().String()
	case "jog":
		if len(fields) != 4 {
			return "error: usage: jog <actuator> <steps> <speed>"
		}
		steps, err := strconv.Atoi(fields[2])
		if err != nil {
			return "error: invalid steps"
		}
		speed, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return "error: invalid speed"
		}
		if err = a.p.Jog(fields[1], steps, speed); err != nil {
			return "error: " + err.Error()
		}
		return "ok"
	case "flowrate":
		if len(fields) != 2 {
			return "error: usage: flowrate <value>"
		}
		rate, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return "error: invalid value"
		}
		if err = a.p.SetFlowRate(rate); err != nil {
			return "error: " + err.Error()
		}
		a.mx.Lock()
		a.cfg.FlowRate = rate
		err = a.cfg.save(a.configPath)
		a.mx.Unlock()
		if err != nil {
			log.Println("ERROR: save config:", err)
		}
		return fmt.Sprintf("ok %g", rate)
	}
	return "error: unknown command"
}
