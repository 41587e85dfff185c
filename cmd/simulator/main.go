package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/config"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/service"
)

func i64(v int64) *int64 { return &v }

func main() {
	serial := flag.String("serial", "SIM-0001", "device serial to publish as")
	count := flag.Int("count", 100, "number of data messages")
	interval := flag.Duration("interval", 500*time.Millisecond, "delay between messages")
	flag.Parse()

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	config.SetupLogging()

	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker()).
		SetClientID(fmt.Sprintf("pump-simulator-%d", time.Now().UnixNano()))
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	publish := func(kind string, v any) {
		payload, _ := json.Marshal(v)
		token := client.Publish(fmt.Sprintf("pumps/%s/%s", *serial, kind), 1, false, payload)
		if token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("kind", kind).Msg("publish failed")
		}
	}

	publish("settings", service.SettingsMessage{
		Hold: i64(30), MinAir: i64(5), MaxAir: i64(60), Purge: i64(10),
		MaxIdle: i64(300), Rest: i64(120), Thres: i64(80), VolPerCycle: i64(2),
	})

	for i := 0; i < *count; i++ {
		cycles := int64(1 + rand.Intn(5))
		publish("data", service.DataMessage{
			CycleCount:   i64(cycles),
			BadCycles:    i64(int64(rand.Intn(2))),
			VolumePumped: i64(cycles * 2),
			BattVoltage:  func() *float64 { v := 12 + rand.Float64(); return &v }(),
			CurADC:       i64(int64(400 + rand.Intn(200))),
			HighADC:      i64(int64(700 + rand.Intn(200))),
		})
		time.Sleep(*interval)
	}
	log.Info().Str("serial", *serial).Int("messages", *count).Msg("simulation done")
}
