package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/fc.go/pkg/mirror"
)

var (
	mqttURL = "mqtt://localhost:1883/fc/"
)

func init() {
	if val := os.Getenv("FC_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mirror.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mirror.Handler(func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/meta"):
			if len(payload) == 0 {
				log.Printf("%s: offline", topic)
				return
			}
			log.Printf("%s: %s", topic, string(payload))
		case strings.HasSuffix(topic, "/status"):
			var status mirror.Status
			if err := proto.Unmarshal(payload, &status); err != nil {
				log.Printf("%s: bad status: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, status.String())
		}
	}))
	<-(chan struct{})(nil)
}
