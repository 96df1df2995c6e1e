package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/l1/comm/mqtt"
	"github.com/robotalks/mculink/pkg/telemetry"
)

var (
	mqttURL = "mqtt://localhost:1883/mculink/"
)

func init() {
	if val := os.Getenv("MCULINK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, mqtt.TopicMeta) {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		env, err := mqtt.DecodeEnvelope(payload)
		if err != nil {
			log.Printf("%s: bad envelope: %v", topic, err)
			return
		}
		f, err := comm.DecodeBytes(env.Payload)
		if err != nil {
			log.Printf("%s: #%d %x: %v", topic, env.Seq, env.Payload, err)
			return
		}
		if r, err := telemetry.ParseReport(f.Payload()); err == nil {
			log.Printf("%s: #%d [report] %s", topic, env.Seq, r.String())
			return
		}
		log.Printf("%s: #%d %s", topic, env.Seq, f.String())
	}))
	<-(chan struct{})(nil)
}
