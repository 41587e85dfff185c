package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/cloud"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/config"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/database"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/service"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	config.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	opts := service.Options{AlertThreshold: config.BadCycleAlertThreshold()}
	if config.UseCloudServices() && config.SNSTopicArn() != "" {
		sns, err := cloud.NewSNSClient(ctx, config.AWSRegion(), config.SNSTopicArn())
		if err != nil {
			log.Fatal().Err(err).Msg("sns client")
		}
		opts.Alerter = sns
	}
	svcs := service.New(db, opts)

	mqttOpts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker()).
		SetClientID(config.MQTTClientID()).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	client := mqtt.NewClient(mqttOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		mctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := svcs.Ingest.FromMQTT(mctx, msg.Topic(), msg.Payload()); err != nil {
			log.Error().Err(err).Str("topic", msg.Topic()).Msg("ingest failed")
		}
	}

	for _, topic := range []string{config.MQTTDataTopic(), config.MQTTSettingsTopic()} {
		if token := client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
			log.Fatal().Err(token.Error()).Str("topic", topic).Msg("subscribe failed")
		}
		log.Info().Str("topic", topic).Msg("subscribed")
	}

	log.Info().Msg("ingestor running; Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("ingestor stopping")
}
