/*
Copyright © 2025 Denis Khalturin
All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are met:

1. Redistributions of source code must retain the above copyright notice,
   this list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright notice,
   this list of conditions and the following disclaimer in the documentation
   and/or other materials provided with the distribution.

3. Neither the name of the copyright holder nor the names of its contributors
   may be used to endorse or promote products derived from this software
   without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
POSSIBILITY OF SUCH DAMAGE.
*/
// prettier-ignore-end
package config

import (
	"fmt"
	"log/slog"
	"time"

	"certchain/internal/storage/types"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config represents the main application configuration structure.
// It contains logging, server, storage, trust-anchor seed, and signing
// configuration. UUID is generated automatically for each application
// instance.
type Config struct {
	Log          ConfigLog         `mapstructure:"log"`
	Server       ConfigServer      `mapstructure:"server"`
	Storage      ConfigStorage     `mapstructure:"storage"`
	TrustAnchors []TrustAnchorSeed `mapstructure:"trust_anchors"`
	Signing      ConfigSigning     `mapstructure:"signing"`
	UUID         uuid.UUID
}

// ConfigLog defines logging configuration for the application.
// It controls log output format, verbosity level, and pretty-printing options.
type ConfigLog struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ConfigServer defines HTTP server configuration parameters.
// It specifies the listen address, read timeout, and write timeout for the server.
type ConfigServer struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ConfigStorage defines storage backend configuration.
// It includes connection parameters (DSN), connection-pool tuning, dump directory
// for file-based persistence, and storage type (fs, memory, redis, postgres).
type ConfigStorage struct {
	ConnMaxIdleTime time.Duration     `mapstructure:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration     `mapstructure:"conn_max_lifetime"`
	DSN             string            `mapstructure:"dsn"`
	DumpDir         string            `mapstructure:"dump_dir"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	Type            types.StorageType `mapstructure:"type"`
}

// TrustAnchorSeed describes a trust anchor provisioned at boot time, as an
// alternative to registering one via the HTTP admin endpoint. NotAfter is an
// RFC 3339 timestamp string rather than time.Time so it unmarshals with a
// plain viper.Unmarshal and no custom mapstructure decode hook.
type TrustAnchorSeed struct {
	Fingerprint string `mapstructure:"fingerprint"`
	Label       string `mapstructure:"label"`
	PublicKey   string `mapstructure:"public_key"`
	NotAfter    string `mapstructure:"not_after"`
}

// ConfigSigning defines which key this instance signs with, if any.
// KeyFile is loaded by internal/signer.NewSigner; Algorithm defaults to
// EdDSA when empty and is not otherwise checked.
type ConfigSigning struct {
	KeyFile   string `mapstructure:"key_file"`
	Algorithm string `mapstructure:"algorithm"`
}

// New loads application configuration from viper.
// It unmarshals configuration from file, defaults the signing algorithm, and
// generates a unique UUID for the application instance. The storage type is
// not checked here.
func New() (Config, error) {
	config := Config{
		UUID: uuid.New(),
	}

	if err := viper.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to unmarshal storage config: %w", err)
	}

	if config.Signing.Algorithm == "" {
		config.Signing.Algorithm = "EdDSA"
	}

	slog.Debug("configuration loaded", "config", config)

	return config, nil
}
