package chainsmith

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"math/big"
	"net"
	"net/mail"
	"net/url"
	"time"

	hqgoerrors "github.com/hueristiq/hq-go-errors"
	"golang.org/x/net/idna"
)

// CAConstraint is the basic constraints extension of a certificate request.
//
// Fields:
//   - IsCA (bool): Whether the certificate may sign other certificates.
//   - MaxPathLen (*uint): How many intermediate levels may follow it. nil means unconstrained.
type CAConstraint struct {
	IsCA       bool
	MaxPathLen *uint
}

// CertificateRequest is what a CertificateAuthorityParameters hands to an Engine.
//
// Fields:
//   - SubjectAlternativeNames ([]string): Hostnames, IP addresses, emails or URIs the certificate is valid for.
//   - CAConstraint (CAConstraint): The basic constraints of the certificate.
//   - DistinguishedName (DistinguishedName): The subject, which is also the issuer of the self-signed certificate.
type CertificateRequest struct {
	SubjectAlternativeNames []string
	CAConstraint            CAConstraint
	DistinguishedName       DistinguishedName
}

// GeneratedCertificate is the output of an Engine.
//
// Fields:
//   - CertificatePEM (string): The PEM encoded certificate ("CERTIFICATE" block).
//   - PrivateKeyPEM (string): The PEM encoded PKCS#8 private key ("PRIVATE KEY" block).
type GeneratedCertificate struct {
	CertificatePEM string
	PrivateKeyPEM  string
}

// Engine performs key generation, signing and PEM encoding for a CertificateRequest.
type Engine interface {
	Generate(request *CertificateRequest) (generated *GeneratedCertificate, err error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(request *CertificateRequest) (generated *GeneratedCertificate, err error)

// Generate calls f(request).
func (f EngineFunc) Generate(request *CertificateRequest) (generated *GeneratedCertificate, err error) {
	return f(request)
}

// KeyAlgorithm selects the key pair type generated by X509Engine.
type KeyAlgorithm string

const (
	KeyAlgorithmRSA     KeyAlgorithm = "rsa"
	KeyAlgorithmECDSA   KeyAlgorithm = "ecdsa"
	KeyAlgorithmEd25519 KeyAlgorithm = "ed25519"
)

// _EngineOptions defines configuration options of X509Engine.
//
// Fields:
//   - KeyAlgorithm (KeyAlgorithm): The key pair type (RSA by default).
//   - RSAKeySize (int): Modulus size in bits when KeyAlgorithm is RSA (2048 by default).
//   - ValidFrom (time.Time): The start of the validity period. Defaults to the time of generation.
//   - ValidFor (time.Duration): The length of the validity period (365 days by default).
type _EngineOptions struct {
	KeyAlgorithm KeyAlgorithm
	RSAKeySize   int
	ValidFrom    time.Time
	ValidFor     time.Duration
}

// EngineOptionFunc configures an X509Engine using the functional options pattern.
type EngineOptionFunc func(options *_EngineOptions)

// EngineWithKeyAlgorithm sets the key pair type.
func EngineWithKeyAlgorithm(algorithm KeyAlgorithm) EngineOptionFunc {
	return func(options *_EngineOptions) {
		options.KeyAlgorithm = algorithm
	}
}

// EngineWithRSAKeySize sets the RSA modulus size in bits.
func EngineWithRSAKeySize(size int) EngineOptionFunc {
	return func(options *_EngineOptions) {
		options.RSAKeySize = size
	}
}

// EngineWithValidFrom pins the start of the validity period.
func EngineWithValidFrom(validFrom time.Time) EngineOptionFunc {
	return func(options *_EngineOptions) {
		options.ValidFrom = validFrom
	}
}

// EngineWithValidFor sets the length of the validity period.
func EngineWithValidFor(validFor time.Duration) EngineOptionFunc {
	return func(options *_EngineOptions) {
		options.ValidFor = validFor
	}
}

// X509Engine is the default Engine. It produces self-signed certificates with crypto/x509.
type X509Engine struct {
	_Options _EngineOptions
}

var _ Engine = (*X509Engine)(nil)

// NewEngine creates an X509Engine.
//
// Parameters:
//   - options (...EngineOptionFunc): Options for key algorithm and validity.
//
// Returns:
//   - engine (*X509Engine): The configured engine.
func NewEngine(options ...EngineOptionFunc) (engine *X509Engine) {
	engine = &X509Engine{
		_Options: _EngineOptions{
			KeyAlgorithm: KeyAlgorithmRSA,
			RSAKeySize:   2048,
			ValidFor:     365 * 24 * time.Hour,
		},
	}

	for _, f := range options {
		f(&engine._Options)
	}

	return
}

// Generate creates a key pair and a self-signed certificate for the request.
//
// The certificate carries a random serial number, a subject key identifier, the request's basic
// constraints and its subject alternative names sorted into IP, email, URI and DNS entries. DNS
// names are converted to their ASCII (punycode) form. Certificate signing key usages are set when
// the request asks for a CA.
//
// Parameters:
//   - request (*CertificateRequest): The request to fulfil. It must carry at least one SAN.
//
// Returns:
//   - generated (*GeneratedCertificate): The PEM encoded certificate and private key.
//   - err (error): An error with stack trace and metadata if the request is invalid or any step fails.
func (engine *X509Engine) Generate(request *CertificateRequest) (generated *GeneratedCertificate, err error) {
	if request == nil {
		err = hqgoerrors.New("certificate request is nil")

		return
	}

	if len(request.SubjectAlternativeNames) == 0 {
		err = hqgoerrors.New("certificate request has no subject alternative names")

		return
	}

	var privateKey crypto.Signer

	privateKey, err = generatePrivateKey(engine._Options.KeyAlgorithm, engine._Options.RSAKeySize)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to generate private key", hqgoerrors.WithField("algorithm", string(engine._Options.KeyAlgorithm)))

		return
	}

	publicKey := privateKey.Public()

	var SKI []byte

	SKI, err = generateSubjectKeyID(publicKey)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to generate subject key ID")

		return
	}

	var serialNumber *big.Int

	serialNumber, err = generateSerialNumber()
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to generate serial number")

		return
	}

	validFrom := engine._Options.ValidFrom
	if validFrom.IsZero() {
		validFrom = time.Now()
	}

	template := &x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               request.DistinguishedName.PKIXName(),
		SubjectKeyId:          SKI,
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  request.CAConstraint.IsCA,
		NotBefore:             validFrom.Add(-5 * time.Minute),
		NotAfter:              validFrom.Add(engine._Options.ValidFor),
	}

	if _, ok := privateKey.(*rsa.PrivateKey); ok {
		template.KeyUsage |= x509.KeyUsageKeyEncipherment
	}

	if request.CAConstraint.IsCA {
		template.KeyUsage |= x509.KeyUsageCertSign | x509.KeyUsageCRLSign

		if request.CAConstraint.MaxPathLen != nil {
			template.MaxPathLen = int(*request.CAConstraint.MaxPathLen)
			template.MaxPathLenZero = template.MaxPathLen == 0
		} else {
			template.MaxPathLen = -1
		}
	}

	if err = addSubjectAlternativeNames(template, request.SubjectAlternativeNames); err != nil {
		return
	}

	var certificateInBytes []byte

	certificateInBytes, err = x509.CreateCertificate(rand.Reader, template, template, publicKey, privateKey)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to create certificate")

		return
	}

	var certificate *x509.Certificate

	certificate, err = x509.ParseCertificate(certificateInBytes)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to parse certificate")

		return
	}

	var certificatePEM *bytes.Buffer

	certificatePEM, err = CertificateToPEM(certificate)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to convert certificate to PEM")

		return
	}

	var privateKeyPEM *bytes.Buffer

	privateKeyPEM, err = PrivateKeyToPEM(privateKey)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to convert private key to PEM")

		return
	}

	generated = &GeneratedCertificate{
		CertificatePEM: certificatePEM.String(),
		PrivateKeyPEM:  privateKeyPEM.String(),
	}

	return
}

func generatePrivateKey(algorithm KeyAlgorithm, RSAKeySize int) (privateKey crypto.Signer, err error) {
	switch algorithm {
	case KeyAlgorithmRSA, "":
		if RSAKeySize < 2048 {
			RSAKeySize = 2048
		}

		privateKey, err = rsa.GenerateKey(rand.Reader, RSAKeySize)
	case KeyAlgorithmECDSA:
		privateKey, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case KeyAlgorithmEd25519:
		_, privateKey, err = ed25519.GenerateKey(rand.Reader)
	default:
		err = hqgoerrors.New("unsupported key algorithm", hqgoerrors.WithField("algorithm", string(algorithm)))
	}

	return
}

// addSubjectAlternativeNames sorts hosts into the IP, email, URI and DNS fields of the template.
func addSubjectAlternativeNames(template *x509.Certificate, hosts []string) (err error) {
	for _, host := range hosts {
		if IP := net.ParseIP(host); IP != nil {
			template.IPAddresses = append(template.IPAddresses, IP)

			continue
		}

		if email, parseErr := mail.ParseAddress(host); parseErr == nil && email.Address == host {
			template.EmailAddresses = append(template.EmailAddresses, host)

			continue
		}

		if uriName, parseErr := url.Parse(host); parseErr == nil && uriName.Scheme != "" && uriName.Host != "" {
			template.URIs = append(template.URIs, uriName)

			continue
		}

		var DNSName string

		DNSName, err = idna.ToASCII(host)
		if err != nil {
			err = hqgoerrors.Wrap(err, "failed to convert DNS name to ASCII", hqgoerrors.WithField("host", host))

			return
		}

		template.DNSNames = append(template.DNSNames, DNSName)
	}

	return
}
