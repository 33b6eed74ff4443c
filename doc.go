// Package chainsmith assembles and issues self-signed X.509 Certificate Authority certificates.
//
// A CA is described by a Distinguished Name, written in the OpenSSL "-subj" notation
// ("/C=US/ST=Utah/L=Lehi/O=Your Company, Inc./OU=IT/CN=yourdomain.com"), and a list of Subject
// Alternative Names. ParseSubject turns the notation into a Subject; CertificateAuthorityParameters
// accumulates SANs and Distinguished Name attributes and hands a CertificateRequest to an Engine,
// which generates the key pair, signs the certificate and PEM encodes both.
//
// Parsing is lenient: malformed segments are dropped and attribute keys outside C, CN, L, ST, O and
// OU are skipped with a warning on the configured *slog.Logger. Generation never panics or aborts;
// an engine failure is logged, exposed through Err, and leaves Certificate and PrivateKey absent.
// Errors returned by this package carry stack traces and metadata from hq-go-errors.
//
// Example Usage:
//
// ```go
// package main
//
// import (
//
//	"fmt"
//	"log"
//	"log/slog"
//	"os"
//
//	hqgochainsmith "github.com/hueristiq/hq-go-chainsmith"
//	hqgoerrors "github.com/hueristiq/hq-go-errors"
//
// )
//
//	func main() {
//		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//
//		parameters := hqgochainsmith.NewCertificateAuthorityParameters(
//			hqgochainsmith.CertificateAuthorityParametersWithLogger(logger),
//		).
//			WithDN("/C=US/ST=Utah/L=Lehi/O=Your Company, Inc./OU=IT/CN=yourdomain.com").
//			WithSAN([]string{"localhost", "127.0.0.1", "::1"}).
//			Generate()
//
//		certificate, ok := parameters.Certificate()
//		if !ok {
//			log.Fatalf("Failed to generate CA: %s", hqgoerrors.ToString(parameters.Err(), true))
//		}
//
//		privateKey, _ := parameters.PrivateKey()
//
//		fmt.Print(certificate)
//		fmt.Print(privateKey)
//	}
//
// ```
package chainsmith
