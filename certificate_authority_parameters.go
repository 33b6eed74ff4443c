package chainsmith

import (
	"crypto"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"slices"

	hqgoerrors "github.com/hueristiq/hq-go-errors"
	"software.sslmate.com/src/go-pkcs12"
)

const (
	// DefaultIssuerCommonName is the CommonName every generated CA certificate is issued to and by,
	// unless CertificateAuthorityParametersWithSubjectFromDN is set.
	DefaultIssuerCommonName = "chainsmith"
	// NoCommonNameFallback becomes the only SAN when no SANs are set and the DN has no CommonName.
	NoCommonNameFallback = "NoCommonName"
	// DefaultMaxPathLen is the number of intermediate CAs allowed below a generated CA.
	DefaultMaxPathLen uint = 1
)

// DefaultSubjectAlternativeNames returns the SANs a new CertificateAuthorityParameters starts with.
func DefaultSubjectAlternativeNames() []string {
	return []string{"localhost", "127.0.0.1", "::1"}
}

// CertificateAuthorityParameters accumulates the SANs and Distinguished Name of a CA certificate and
// generates it through an Engine.
//
// Calls chain, each returning the receiver:
//
//	parameters := NewCertificateAuthorityParameters().
//		WithDN("/C=US/ST=Utah/CN=yourdomain.com").
//		WithSAN([]string{"localhost"}).
//		Generate()
//
// Generate is terminal: once a certificate has been produced further calls leave it untouched.
// A CertificateAuthorityParameters is not safe for concurrent use.
type CertificateAuthorityParameters struct {
	_SubjectAlternativeNames []string
	_DistinguishedName       DistinguishedName
	_SubjectFromDN           bool

	_Engine Engine
	_Logger *slog.Logger

	_Request        *CertificateRequest
	_CertificatePEM string
	_PrivateKeyPEM  string
	_Err            error
}

// CertificateAuthorityParametersOptionFunc configures CertificateAuthorityParameters using the
// functional options pattern.
type CertificateAuthorityParametersOptionFunc func(parameters *CertificateAuthorityParameters)

// CertificateAuthorityParametersWithEngine replaces the default X509Engine.
func CertificateAuthorityParametersWithEngine(engine Engine) CertificateAuthorityParametersOptionFunc {
	return func(parameters *CertificateAuthorityParameters) {
		parameters._Engine = engine
	}
}

// CertificateAuthorityParametersWithLogger sets the logger receiving diagnostics, both from DN
// conversion and from failed generation.
func CertificateAuthorityParametersWithLogger(logger *slog.Logger) CertificateAuthorityParametersOptionFunc {
	return func(parameters *CertificateAuthorityParameters) {
		parameters._Logger = logger
	}
}

// CertificateAuthorityParametersWithSubjectFromDN makes Generate send the accumulated Distinguished
// Name as the certificate subject instead of CN=DefaultIssuerCommonName.
func CertificateAuthorityParametersWithSubjectFromDN() CertificateAuthorityParametersOptionFunc {
	return func(parameters *CertificateAuthorityParameters) {
		parameters._SubjectFromDN = true
	}
}

// NewCertificateAuthorityParameters creates parameters with the default SANs ("localhost",
// "127.0.0.1", "::1"), an empty Distinguished Name and no generated certificate.
//
// Parameters:
//   - options (...CertificateAuthorityParametersOptionFunc): Engine, logger and subject options.
//
// Returns:
//   - parameters (*CertificateAuthorityParameters): The new parameters.
func NewCertificateAuthorityParameters(options ...CertificateAuthorityParametersOptionFunc) (parameters *CertificateAuthorityParameters) {
	parameters = &CertificateAuthorityParameters{
		_SubjectAlternativeNames: DefaultSubjectAlternativeNames(),
		_DistinguishedName:       DistinguishedName{},
	}

	for _, f := range options {
		f(parameters)
	}

	if parameters._Engine == nil {
		parameters._Engine = NewEngine()
	}

	if parameters._Logger == nil {
		parameters._Logger = discardLogger()
	}

	return
}

// WithSAN replaces the SAN list. An empty list lets Generate fall back to the CommonName.
func (parameters *CertificateAuthorityParameters) WithSAN(SANs []string) *CertificateAuthorityParameters {
	parameters._SubjectAlternativeNames = slices.Clone(SANs)

	return parameters
}

// WithDN parses raw as a subject string and appends its recognised attributes to the
// Distinguished Name. Calls accumulate; repeated attribute types are kept.
func (parameters *CertificateAuthorityParameters) WithDN(raw string) *CertificateAuthorityParameters {
	subject := ParseSubject(raw, SubjectWithLogger(parameters._Logger))

	parameters._DistinguishedName = append(parameters._DistinguishedName, subject.DistinguishedName()...)

	return parameters
}

// Generate produces the CA certificate and private key.
//
// It does nothing once a certificate exists. An empty SAN list is replaced by the DN's first
// CommonName, or NoCommonNameFallback. The request sent to the engine always asks for a CA with a
// path length of DefaultMaxPathLen. An engine failure is logged and recorded in Err, and leaves
// Certificate and PrivateKey absent; calling Generate again retries.
//
// Returns:
//   - (*CertificateAuthorityParameters): The receiver.
func (parameters *CertificateAuthorityParameters) Generate() *CertificateAuthorityParameters {
	if parameters._CertificatePEM != "" {
		return parameters
	}

	if len(parameters._SubjectAlternativeNames) == 0 {
		commonName, ok := parameters._DistinguishedName.CommonName()
		if !ok {
			commonName = NoCommonNameFallback
		}

		parameters._SubjectAlternativeNames = []string{commonName}
	}

	maxPathLen := DefaultMaxPathLen

	request := &CertificateRequest{
		SubjectAlternativeNames: slices.Clone(parameters._SubjectAlternativeNames),
		CAConstraint: CAConstraint{
			IsCA:       true,
			MaxPathLen: &maxPathLen,
		},
	}

	if parameters._SubjectFromDN {
		request.DistinguishedName = parameters._DistinguishedName.clone()
	} else {
		request.DistinguishedName.Push(AttributeTypeCommonName, DefaultIssuerCommonName)
	}

	parameters._Request = request

	generated, err := parameters._Engine.Generate(request)
	if err == nil && generated == nil {
		err = hqgoerrors.New("certificate engine returned no certificate")
	}

	if err != nil {
		parameters._Err = err
		parameters._CertificatePEM = ""
		parameters._PrivateKeyPEM = ""

		parameters._Logger.Error("failed to generate certificate",
			slog.Any("subject_alternative_names", request.SubjectAlternativeNames),
			slog.String("error", err.Error()),
		)

		return parameters
	}

	parameters._Err = nil
	parameters._CertificatePEM = generated.CertificatePEM
	parameters._PrivateKeyPEM = generated.PrivateKeyPEM

	return parameters
}

// Certificate returns the PEM encoded certificate. ok is false before a successful Generate.
func (parameters *CertificateAuthorityParameters) Certificate() (certificatePEM string, ok bool) {
	certificatePEM = parameters._CertificatePEM
	ok = certificatePEM != ""

	return
}

// PrivateKey returns the PEM encoded private key. ok is false before a successful Generate.
func (parameters *CertificateAuthorityParameters) PrivateKey() (privateKeyPEM string, ok bool) {
	privateKeyPEM = parameters._PrivateKeyPEM
	ok = privateKeyPEM != ""

	return
}

// SubjectAlternativeNames returns a copy of the current SAN list.
func (parameters *CertificateAuthorityParameters) SubjectAlternativeNames() []string {
	return slices.Clone(parameters._SubjectAlternativeNames)
}

// DistinguishedName returns a copy of the accumulated Distinguished Name.
func (parameters *CertificateAuthorityParameters) DistinguishedName() DistinguishedName {
	return parameters._DistinguishedName.clone()
}

// Request returns the request most recently sent to the engine, or nil.
func (parameters *CertificateAuthorityParameters) Request() *CertificateRequest {
	return parameters._Request
}

// Err returns the error of the last failed Generate, or nil.
func (parameters *CertificateAuthorityParameters) Err() error {
	return parameters._Err
}

// TLSCertificate returns the generated certificate and key as a tls.Certificate.
//
// Returns:
//   - certificate (tls.Certificate): The key pair with its Leaf populated.
//   - err (error): An error with stack trace and metadata if nothing was generated or the PEM data is invalid.
func (parameters *CertificateAuthorityParameters) TLSCertificate() (certificate tls.Certificate, err error) {
	if err = parameters.requireGenerated(); err != nil {
		return
	}

	certificate, err = tls.X509KeyPair([]byte(parameters._CertificatePEM), []byte(parameters._PrivateKeyPEM))
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to load generated key pair")

		return
	}

	return
}

// PKCS12 bundles the generated certificate and private key into a password protected PKCS#12 file.
//
// Parameters:
//   - password (string): The password protecting the bundle.
//
// Returns:
//   - PFX ([]byte): The DER encoded PKCS#12 data.
//   - err (error): An error with stack trace and metadata if nothing was generated or encoding fails.
func (parameters *CertificateAuthorityParameters) PKCS12(password string) (PFX []byte, err error) {
	if err = parameters.requireGenerated(); err != nil {
		return
	}

	var certificate *x509.Certificate

	certificate, err = parseCertificatePEM(parameters._CertificatePEM)
	if err != nil {
		return
	}

	var privateKey crypto.PrivateKey

	privateKey, err = parsePrivateKeyPEM(parameters._PrivateKeyPEM)
	if err != nil {
		return
	}

	PFX, err = pkcs12.Encode(rand.Reader, privateKey, certificate, nil, password)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to encode PKCS#12")

		return
	}

	return
}

// SaveCertificatePrivateKeyToFiles writes the generated certificate and private key as PEM files
// with permissions 0600, creating parent directories as needed.
//
// Parameters:
//   - certificateFilePath (string): Destination of the certificate.
//   - privateKeyFilePath (string): Destination of the private key.
//
// Returns:
//   - err (error): An error with stack trace and metadata if nothing was generated or a write fails.
func (parameters *CertificateAuthorityParameters) SaveCertificatePrivateKeyToFiles(certificateFilePath, privateKeyFilePath string) (err error) {
	if err = parameters.requireGenerated(); err != nil {
		return
	}

	if err = writeToFile([]byte(parameters._CertificatePEM), certificateFilePath); err != nil {
		err = hqgoerrors.Wrap(err, "failed to write certificate to file", hqgoerrors.WithField("path", certificateFilePath))

		return
	}

	if err = writeToFile([]byte(parameters._PrivateKeyPEM), privateKeyFilePath); err != nil {
		err = hqgoerrors.Wrap(err, "failed to write private key to file", hqgoerrors.WithField("path", privateKeyFilePath))

		return
	}

	return
}

func (parameters *CertificateAuthorityParameters) requireGenerated() (err error) {
	if parameters._CertificatePEM == "" || parameters._PrivateKeyPEM == "" {
		err = hqgoerrors.New("no certificate has been generated")
	}

	return
}
