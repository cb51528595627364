package main

import (
	"github.com/BurntSushi/toml"
)

type Config struct {
	Server ServerConfig `toml:"server"`
	Serial SerialConfig `toml:"serial"`
	SPJS   SPJSConfig   `toml:"spjs"`
}

type ServerConfig struct {
	Addr    string `toml:"addr"`
	DataDir string `toml:"data_dir"`
}

type SerialConfig struct {
	Port string `toml:"port"`
	Baud int    `toml:"baud"`
}

type SPJSConfig struct {
	URL  string `toml:"url"`
	Port string `toml:"port"`
	Open bool   `toml:"open"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":9091", DataDir: "./data"},
		Serial: SerialConfig{Port: "/dev/ttyUSB0", Baud: 115200},
		SPJS:   SPJSConfig{URL: "ws://cnc-bridge:8989/ws", Port: "/dev/ttyUSB0"},
	}
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	_, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, err
	}
	return c, nil
}
