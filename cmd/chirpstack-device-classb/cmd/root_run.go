package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brocaar/chirpstack-device-classb/internal/band"
	"github.com/brocaar/chirpstack-device-classb/internal/config"
	"github.com/brocaar/chirpstack-device-classb/internal/device"
	"github.com/brocaar/chirpstack-device-classb/internal/integration"
	"github.com/brocaar/chirpstack-device-classb/internal/mac"
	"github.com/brocaar/chirpstack-device-classb/internal/monitoring"
	"github.com/brocaar/chirpstack-device-classb/internal/storage"
)

var (
	store storage.Store
	pub   integration.Publisher
	dev   *device.Device
)

func run(cmd *cobra.Command, args []string) error {
	tasks := []func() error{
		setLogLevel,
		setupBand,
		printStartMessage,
		setupMonitoring,
		setupStorage,
		setupIntegration,
		setupDevice,
	}

	for _, t := range tasks {
		if err := t(); err != nil {
			log.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() {
		runErr <- dev.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-runErr:
		cancel()
		if err != nil {
			log.WithError(err).Error("device stopped")
		}
	case s := <-sigChan:
		log.WithField("signal", s).Info("signal received")
		log.Warning("stopping chirpstack-device-classb")
		cancel()
		select {
		case <-runErr:
		case s := <-sigChan:
			log.WithField("signal", s).Info("signal received, stopping immediately")
		}
	}

	if err := pub.Close(); err != nil {
		log.WithError(err).Error("close integration error")
	}
	if err := store.Close(); err != nil {
		log.WithError(err).Error("close storage error")
	}

	return nil
}

func setLogLevel() error {
	log.SetLevel(log.Level(uint8(config.C.General.LogLevel)))
	return nil
}

func setupBand() error {
	if err := band.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup band error")
	}
	return nil
}

func printStartMessage() error {
	log.WithFields(log.Fields{
		"version":    version,
		"band":       config.C.Device.Region,
		"activation": config.C.Device.Activation,
		"docs":       "https://www.chirpstack.io/",
	}).Info("starting ChirpStack Class B device")
	return nil
}

func setupMonitoring() error {
	if err := monitoring.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup monitoring error")
	}
	return nil
}

func setupStorage() error {
	var err error
	store, err = storage.Setup(config.C)
	if err != nil {
		return errors.Wrap(err, "setup storage error")
	}
	return nil
}

func setupIntegration() error {
	var err error
	pub, err = integration.Setup(config.C)
	if err != nil {
		return errors.Wrap(err, "setup integration error")
	}
	return nil
}

func setupDevice() error {
	var err error
	dev, err = device.New(config.C, mac.NewSimulator(), store, pub)
	if err != nil {
		return errors.Wrap(err, "setup device error")
	}
	return nil
}
