// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package securestore

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Values are JSON-encoded before sealing; schema-stable structs round-trip
// field-wise.

func marshalValue(value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal value for store")
		return nil, err
	}
	return data, nil
}

func unmarshalValue(data []byte, value interface{}) error {
	return json.Unmarshal(data, value)
}
