// Package main runs a demo WebSocket client for plan events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	PlanID  string          `json:"planId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	post := func(path string, body []byte, method string) *http.Response {
		req, _ := http.NewRequest(method, base+path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-Id", "t_demo")
		req.Header.Set("X-Role", "admin")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Fatal(err)
		}
		return resp
	}

	// Seed planning data
	areas := []byte(`{"areas":[{"name":"north","members":["ann","ben","dana"]},{"name":"south","members":["carl"]}]}`)
	_ = post("/v1/areas", areas, http.MethodPut).Body.Close()
	edges := []byte(`{"edges":[{"from":"depot","to":"north","cost":2},{"from":"depot","to":"south","cost":3},{"from":"north","to":"south","cost":4}]}`)
	_ = post("/v1/distances", edges, http.MethodPut).Body.Close()

	// Create a plan
	body := []byte(`{"tenantId":"t_demo","present":["ann","ben","carl","dana"],"drivers":[{"name":"dana","seats":2,"isParent":true},{"name":"carl","seats":1,"isParent":false}]}`)
	resp := post("/v1/plan", body, http.MethodPost)
	defer func() { _ = resp.Body.Close() }()
	var planResp struct {
		ID              string              `json:"id"`
		RideAssignments map[string][]string `json:"rideAssignments"`
		Cost            float64             `json:"cost"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&planResp); err != nil {
		log.Fatal(err)
	}
	if planResp.ID == "" {
		log.Fatal("no plan returned")
	}
	log.Printf("Plan ID: %s cost=%.1f assignments=%v", planResp.ID, planResp.Cost, planResp.RideAssignments)

	// Connect WS and subscribe to the plan's event stream
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/plans/ws"}
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	hdr.Set("X-Role", "admin")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", PlanID: planResp.ID}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	// Wait briefly to receive ack and any frames
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
