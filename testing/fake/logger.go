package fake

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// CheckLog returns a logger and a check function. The check fails unless one
// of the entries written by the logger has the message.
func CheckLog(msg string) (zerolog.Logger, func(t *testing.T)) {
	buffer := new(bytes.Buffer)

	check := func(t *testing.T) {
		require.Contains(t, Messages(buffer.Bytes()), msg, buffer.String())
	}

	return zerolog.New(buffer), check
}

// Messages returns the messages of the JSON entries in the order they were
// written. Lines that are not entries are ignored.
func Messages(output []byte) []string {
	messages := []string{}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		entry := map[string]interface{}{}

		err := json.Unmarshal(scanner.Bytes(), &entry)
		if err != nil {
			continue
		}

		msg, ok := entry[zerolog.MessageFieldName].(string)
		if ok {
			messages = append(messages, msg)
		}
	}

	return messages
}
