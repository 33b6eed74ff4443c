package chainsmith

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"encoding/pem"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"

	hqgoerrors "github.com/hueristiq/hq-go-errors"
)

// generateSerialNumber creates a random serial number for use in X.509 certificates.
//
// The number is at most 128 bits long. Zero is not a valid serial number per RFC 5280, so a
// zero draw is replaced by 1.
//
// Returns:
//   - serialNumber (*big.Int): A pointer to a big.Int representing the generated serial number.
//   - err (error): An error with stack trace and metadata if random number generation fails; otherwise, nil.
func generateSerialNumber() (serialNumber *big.Int, err error) {
	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)

	serialNumber, err = rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to generate random serial number")

		return
	}

	if serialNumber.Sign() == 0 {
		serialNumber = big.NewInt(1)
	}

	return
}

// generateSubjectKeyID computes a Subject Key Identifier (SKI) from a given public key.
//
// The SKI is the SHA-1 hash of the PKIX encoded public key, as in RFC 5280, section 4.2.1.2.
//
// Parameters:
//   - publicKey (crypto.PublicKey): The public key to generate the SKI for.
//
// Returns:
//   - SKI ([]byte): A byte slice containing the SHA-1 hash of the marshaled public key.
//   - err (error): An error with stack trace and metadata if public key marshaling fails or the key is empty;
//     otherwise, nil.
func generateSubjectKeyID(publicKey crypto.PublicKey) (SKI []byte, err error) {
	pkixPub, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to marshal public key to PKIX format")

		return
	}

	if len(pkixPub) == 0 {
		err = hqgoerrors.New("public key is empty")

		return
	}

	sum := sha1.Sum(pkixPub)

	SKI = sum[:]

	return
}

// CertificateToPEM converts an X.509 certificate to PEM format.
//
// Parameters:
//   - certificate (*x509.Certificate): A pointer to the X.509 certificate to convert.
//
// Returns:
//   - raw (*bytes.Buffer): A bytes.Buffer containing the PEM-encoded certificate.
//   - err (error): An error with stack trace and metadata if PEM encoding fails; otherwise, nil.
func CertificateToPEM(certificate *x509.Certificate) (raw *bytes.Buffer, err error) {
	raw = new(bytes.Buffer)

	if err = pem.Encode(raw, &pem.Block{Type: "CERTIFICATE", Bytes: certificate.Raw}); err != nil {
		err = hqgoerrors.Wrap(err, "failed to encode certificate to PEM")

		return
	}

	return
}

// PrivateKeyToPEM converts a private key to a PKCS#8 "PRIVATE KEY" PEM block.
//
// Parameters:
//   - privateKey (crypto.PrivateKey): An RSA, ECDSA or Ed25519 private key.
//
// Returns:
//   - raw (*bytes.Buffer): A bytes.Buffer containing the PEM-encoded private key.
//   - err (error): An error with stack trace and metadata if marshaling or PEM encoding fails; otherwise, nil.
func PrivateKeyToPEM(privateKey crypto.PrivateKey) (raw *bytes.Buffer, err error) {
	raw = new(bytes.Buffer)

	var privateKeyInBytes []byte

	privateKeyInBytes, err = x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to marshal private key to PKCS#8")

		return
	}

	if err = pem.Encode(raw, &pem.Block{Type: "PRIVATE KEY", Bytes: privateKeyInBytes}); err != nil {
		err = hqgoerrors.Wrap(err, "failed to encode private key to PEM")

		return
	}

	return
}

// parseCertificatePEM decodes the first "CERTIFICATE" block of raw.
func parseCertificatePEM(raw string) (certificate *x509.Certificate, err error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil || block.Type != "CERTIFICATE" {
		err = hqgoerrors.New("no CERTIFICATE block found in PEM data")

		return
	}

	certificate, err = x509.ParseCertificate(block.Bytes)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to parse certificate")

		return
	}

	return
}

// parsePrivateKeyPEM decodes the first "PRIVATE KEY" block of raw.
func parsePrivateKeyPEM(raw string) (privateKey crypto.PrivateKey, err error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil || block.Type != "PRIVATE KEY" {
		err = hqgoerrors.New("no PRIVATE KEY block found in PEM data")

		return
	}

	privateKey, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to parse PKCS#8 private key")

		return
	}

	return
}

// mkdir creates a directory at the specified path if it does not exist.
//
// Parameters:
//   - path (string): The file system path for the directory to create.
//
// Returns:
//   - err (error): An error with stack trace and metadata if directory creation fails; otherwise, nil.
func mkdir(path string) (err error) {
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		if err = os.MkdirAll(path, 0o755); err != nil {
			err = hqgoerrors.Wrap(err, "failed to create directory", hqgoerrors.WithField("path", path))

			return
		}
	}

	return
}

// writeToFile writes content to path with permissions 0600, creating the parent directory first.
//
// Parameters:
//   - content ([]byte): The data to write.
//   - path (string): The file path where the content will be written.
//
// Returns:
//   - err (error): An error with stack trace and metadata if directory creation or file writing fails;
//     otherwise, nil.
func writeToFile(content []byte, path string) (err error) {
	directory := filepath.Dir(path)

	if err = mkdir(directory); err != nil {
		err = hqgoerrors.Wrap(err, "failed to create parent directory", hqgoerrors.WithField("path", directory))

		return
	}

	if err = os.WriteFile(path, content, 0o600); err != nil {
		err = hqgoerrors.Wrap(err, "failed to write to file", hqgoerrors.WithField("path", path))
	}

	return
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
