package chainsmith

import (
	"bytes"
	"maps"
	"slices"

	hqgoerrors "github.com/hueristiq/hq-go-errors"
	"gopkg.in/yaml.v3"
)

// EncodeCertificatesYAML renders PEM certificates as a YAML document with a single "certs" mapping
// from name to certificate. Values use literal block style so the PEM text stays readable.
func EncodeCertificatesYAML(certificates map[string]string) (raw []byte, err error) {
	return encodePEMMappingYAML("certs", certificates)
}

// EncodePrivateKeysYAML renders PEM private keys as a YAML document with a single "private_keys"
// mapping from name to key.
func EncodePrivateKeysYAML(privateKeys map[string]string) (raw []byte, err error) {
	return encodePEMMappingYAML("private_keys", privateKeys)
}

// WriteYAML writes encoded YAML content to path with permissions 0600.
func WriteYAML(content []byte, path string) (err error) {
	if err = writeToFile(content, path); err != nil {
		err = hqgoerrors.Wrap(err, "failed to write YAML", hqgoerrors.WithField("path", path))
	}

	return
}

func encodePEMMappingYAML(key string, entries map[string]string) (raw []byte, err error) {
	inner := &yaml.Node{Kind: yaml.MappingNode}

	for _, name := range slices.Sorted(maps.Keys(entries)) {
		inner.Content = append(inner.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: entries[name], Style: yaml.LiteralStyle},
		)
	}

	document := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			inner,
		},
	}

	buffer := new(bytes.Buffer)

	buffer.WriteString("---\n")

	encoder := yaml.NewEncoder(buffer)

	encoder.SetIndent(2)

	if err = encoder.Encode(document); err != nil {
		err = hqgoerrors.Wrap(err, "failed to encode YAML", hqgoerrors.WithField("key", key))

		return
	}

	if err = encoder.Close(); err != nil {
		err = hqgoerrors.Wrap(err, "failed to flush YAML encoder", hqgoerrors.WithField("key", key))

		return
	}

	raw = buffer.Bytes()

	return
}
