// Command mockserver runs the development backend emulator: it accepts
// order submissions and replays the lifecycle over the push channel.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/doenerwerk/ordering-client/internal/mockserver"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	interval := flag.Duration("interval", 2*time.Second, "delay between lifecycle messages")
	flag.Parse()

	srv := mockserver.New(*interval)

	log.Printf("mock Döner backend listening on %s", *addr)
	if err := http.ListenAndServe(*addr, srv.Router()); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}
