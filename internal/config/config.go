package config

import (
	"time"
)

// Version defines the version of the device application.
var Version string

// Config defines the configuration structure.
type Config struct {
	General struct {
		LogLevel int `mapstructure:"log_level"`
	} `mapstructure:"general"`

	Device struct {
		// Region defines the regional band profile the MAC engine is
		// configured for (e.g. EU868, US915).
		Region string `mapstructure:"region"`

		// Activation defines the activation method: otaa or abp.
		Activation string `mapstructure:"activation"`

		// DevAddr defines a static device address for ABP activation
		// (hex encoded, 4 bytes). When empty, a random address is
		// assigned at startup.
		DevAddr string `mapstructure:"dev_addr"`

		// NetID defines the network identifier used for ABP activation.
		NetID uint32 `mapstructure:"net_id"`

		// BeaconStrategy selects the beacon synchronization strategy:
		// device_time (DeviceTimeReq) or beacon_timing (the deprecated
		// BeaconTimingReq MAC command).
		BeaconStrategy string `mapstructure:"beacon_strategy"`

		// PingSlotPeriodicity defines the requested ping-slot
		// periodicity. The device opens an RX slot every 2^periodicity
		// seconds.
		PingSlotPeriodicity uint8 `mapstructure:"ping_slot_periodicity"`

		AppPort        uint8         `mapstructure:"app_port"`
		Confirmed      bool          `mapstructure:"confirmed"`
		DataRate       int           `mapstructure:"data_rate"`
		ADR            bool          `mapstructure:"adr"`
		PublicNetwork  bool          `mapstructure:"public_network"`
		TxInterval     time.Duration `mapstructure:"tx_interval"`
		TxIntervalRand time.Duration `mapstructure:"tx_interval_rand"`

		// MaxRxError defines the system maximum timing error of the
		// receiver in milliseconds.
		MaxRxError int `mapstructure:"max_rx_error"`
	} `mapstructure:"device"`

	Storage struct {
		// Backend defines the device-context storage backend:
		// file or redis.
		Backend string `mapstructure:"backend"`

		File struct {
			Path string `mapstructure:"path"`
		} `mapstructure:"file"`

		Redis struct {
			URL string `mapstructure:"url"`
		} `mapstructure:"redis"`
	} `mapstructure:"storage"`

	Integration struct {
		MQTT struct {
			Server      string `mapstructure:"server"`
			Username    string `mapstructure:"username"`
			Password    string `mapstructure:"password"`
			TopicPrefix string `mapstructure:"topic_prefix"`
			QOS         uint8  `mapstructure:"qos"`
		} `mapstructure:"mqtt"`
	} `mapstructure:"integration"`

	Monitoring struct {
		Bind                string `mapstructure:"bind"`
		PrometheusEndpoint  bool   `mapstructure:"prometheus_endpoint"`
		HealthcheckEndpoint bool   `mapstructure:"healthcheck_endpoint"`
	} `mapstructure:"monitoring"`
}

// C holds the global configuration.
var C Config
