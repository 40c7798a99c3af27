package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/oneilljw/homecontrol/pkg/events"
	log "github.com/sirupsen/logrus"
)

// Prints every event the control server publishes to NATS.
func main() {
	url := flag.String("url", nats.DefaultURL, "NATS server url")
	topic := flag.String("topic", ">", "event topic to watch")
	flag.Parse()

	nc, err := nats.Connect(*url)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	// Subscribe
	if _, err := nc.Subscribe(events.Subject(*topic), func(m *nats.Msg) {
		fmt.Printf("subject: %s, message: %s\n", m.Subject, string(m.Data))
	}); err != nil {
		log.Fatal(err)
	}

	// Wait for interrupt signal
	quitCh := make(chan os.Signal, 1)
	signal.Notify(quitCh, os.Interrupt)
	<-quitCh
}
