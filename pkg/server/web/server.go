package web

import (
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/solkit/pkg/http/app"
	"github.com/code-payments/solkit/pkg/instruction"
	"github.com/code-payments/solkit/pkg/metrics"
	"github.com/code-payments/solkit/pkg/netutil"
	"github.com/code-payments/solkit/pkg/rate"
	"github.com/code-payments/solkit/pkg/solana"
)

const (
	healthPath        = "/"
	keypairPath       = "/keypair"
	createTokenPath   = "/token/create"
	mintTokenPath     = "/token/mint"
	signMessagePath   = "/message/sign"
	signAliasPath     = "/sign"
	verifyMessagePath = "/message/verify"
	verifyAliasPath   = "/verify"
	sendSolPath       = "/send/sol"
	sendSolAliasPath  = "/send-sol"
	sendTokenPath     = "/send/token"
	sendTokenAlias    = "/send-token"
	derivePath        = "/derive"

	requestCountMetricName    = "Web/%s_count"
	requestDurationMetricName = "Web/%s_duration"
	rateLimitedEventName      = "WebRateLimited"
)

// Option configures a Server.
type Option func(*Server)

// WithBuilder sets the instruction builder used by the instruction routes.
func WithBuilder(b *instruction.Builder) Option {
	return func(s *Server) {
		s.builder = b
	}
}

// WithRandSource sets the entropy source used for keypair generation.
func WithRandSource(r io.Reader) Option {
	return func(s *Server) {
		s.rand = r
	}
}

// WithRateLimiter limits requests per client IP. Health checks are never limited.
func WithRateLimiter(l rate.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithTrustedForwardedFor identifies clients by X-Forwarded-For rather than
// the connection's remote address.
func WithTrustedForwardedFor(trusted bool) Option {
	return func(s *Server) {
		s.trustForwarded = trusted
	}
}

// WithCORS enables CORS. Empty lists fall back to any origin, GET and POST,
// and the content-type header.
func WithCORS(origins, methods, headers []string) Option {
	return func(s *Server) {
		s.cors = newCORSPolicy(origins, methods, headers)
	}
}

type Server struct {
	log *logrus.Entry

	builder        *instruction.Builder
	rand           io.Reader
	limiter        rate.Limiter
	trustForwarded bool
	cors           *corsPolicy
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		log:     logrus.StandardLogger().WithField("type", "web/server"),
		builder: instruction.NewBuilder(),
		rand:    rand.Reader,
		limiter: &rate.NoLimiter{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type handlerFunc func(r *http.Request, log *logrus.Entry) (int, GenericApiResponseBody)

// handle wraps a route with the behaviour common to every route: path and
// method checks, rate limiting, metrics and response writing. The mux routes
// unknown paths to "/", so those are answered with a 404 before anything else.
func (s *Server) handle(path, method string, limited bool, fn handlerFunc) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithFields(logrus.Fields{
			"path":       path,
			"request_id": r.Header.Get(app.RequestIDHeader),
		})
		start := time.Now()

		ctx := r.Context()
		tracer := metrics.TraceMethodCall(ctx, "web", path)
		defer tracer.End()

		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.URL.Path != path {
				return http.StatusNotFound, NewGenericApiFailureResponseBody(errNotFound)
			}

			if limited {
				clientIP := netutil.GetClientIP(r, s.trustForwarded)
				allowed, err := s.limiter.Allow(clientIP)
				if err != nil {
					log.WithError(err).Warn("failure checking rate limit")
				} else if !allowed {
					log.WithField("client_ip", clientIP).Debug("request rate limited")
					metrics.RecordEvent(ctx, rateLimitedEventName, map[string]interface{}{
						"path": path,
					})
					return http.StatusTooManyRequests, NewGenericApiFailureResponseBody(errRateLimited)
				}
			}

			if r.Method != method {
				if method == http.MethodPost {
					return http.StatusBadRequest, NewGenericApiFailureResponseBody(errPostExpected)
				}
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errGetExpected)
			}

			return fn(r, log)
		}()

		tracer.AddAttribute("status_code", statusCode)
		metrics.RecordCount(ctx, fmt.Sprintf(requestCountMetricName, path), 1)
		metrics.RecordDuration(ctx, fmt.Sprintf(requestDurationMetricName, path), time.Since(start))

		if err := writeResponse(w, statusCode, body); err != nil {
			log.WithError(err).Warn("failed to write body")
		}
	}

	if s.cors != nil {
		return s.cors.wrap(handler)
	}
	return handler
}

func (s *Server) healthHandler(r *http.Request, log *logrus.Entry) (int, GenericApiResponseBody) {
	return http.StatusOK, NewGenericApiSuccessResponseBody(map[string]any{
		"status": "ok",
		"endpoints": []string{
			keypairPath,
			createTokenPath,
			mintTokenPath,
			signMessagePath,
			verifyMessagePath,
			sendSolPath,
			sendTokenPath,
			derivePath,
		},
	})
}

func (s *Server) keypairHandler(r *http.Request, log *logrus.Entry) (int, GenericApiResponseBody) {
	kp, err := solana.GenerateKeypair(s.rand)
	if err != nil {
		log.WithError(err).Warn("failure generating keypair")
		return http.StatusInternalServerError, NewGenericApiFailureResponseBody(errInternal)
	}

	return http.StatusOK, NewGenericApiSuccessResponseBody(keypairView{
		PublicKey: kp.ToBase58(),
		Secret:    kp.SecretToBase58(),
	})
}

func (s *Server) createTokenHandler(r *http.Request, log *logrus.Entry) (int, GenericApiResponseBody) {
	var req createTokenRequest
	if err := decodeJsonBody(r, &req); err != nil {
		log.WithError(err).Debug("invalid request body")
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidJsonBody)
	}
	if req.Decimals == nil {
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errMissingFields)
	}

	ix, err := s.builder.InitializeMint(req.MintAuthority, req.Mint, *req.Decimals)
	return s.instructionResponse(log, ix, err)
}

func (s *Server) mintTokenHandler(r *http.Request, log *logrus.Entry) (int, GenericApiResponseBody) {
	var req mintTokenRequest
	if err := decodeJsonBody(r, &req); err != nil {
		log.WithError(err).Debug("invalid request body")
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidJsonBody)
	}

	ix, err := s.builder.MintTo(req.Mint, req.Destination, req.Authority, req.Amount)
	return s.instructionResponse(log, ix, err)
}

func (s *Server) sendSolHandler(r *http.Request, log *logrus.Entry) (int, GenericApiResponseBody) {
	var req sendSolRequest
	if err := decodeJsonBody(r, &req); err != nil {
		log.WithError(err).Debug("invalid request body")
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidJsonBody)
	}

	ix, err := s.builder.Transfer(req.From, req.To, req.Lamports)
	return s.instructionResponse(log, ix, err)
}

func (s *Server) sendTokenHandler(r *http.Request, log *logrus.Entry) (int, GenericApiResponseBody) {
	var req sendTokenRequest
	if err := decodeJsonBody(r, &req); err != nil {
		log.WithError(err).Debug("invalid request body")
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidJsonBody)
	}

	ix, err := s.builder.TokenTransfer(req.Owner, req.Mint, req.Destination, req.Amount)
	return s.instructionResponse(log, ix, err)
}

func (s *Server) instructionResponse(log *logrus.Entry, ix solana.Instruction, err error) (int, GenericApiResponseBody) {
	if err != nil {
		statusCode, userErr := handleBuilderError(err)
		if statusCode >= http.StatusInternalServerError {
			log.WithError(err).Warn("failure building instruction")
		}
		return statusCode, NewGenericApiFailureResponseBody(userErr)
	}

	return http.StatusOK, NewGenericApiSuccessResponseBody(instruction.NewView(ix))
}

func (s *Server) signMessageHandler(r *http.Request, log *logrus.Entry) (int, GenericApiResponseBody) {
	var req signMessageRequest
	if err := decodeJsonBody(r, &req); err != nil {
		log.WithError(err).Debug("invalid request body")
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidJsonBody)
	}
	if req.Message == nil || len(req.Secret) == 0 {
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errMissingFields)
	}

	kp, err := solana.NewKeypairFromSecretString(req.Secret)
	switch {
	case errors.Is(err, solana.ErrDecode):
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidSecretFmt)
	case err != nil:
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidSecretKey)
	}

	sig := kp.Sign([]byte(*req.Message))

	return http.StatusOK, NewGenericApiSuccessResponseBody(signView{
		Signature: sig.ToBase58(),
		PublicKey: kp.ToBase58(),
		Message:   *req.Message,
	})
}

func (s *Server) verifyMessageHandler(r *http.Request, log *logrus.Entry) (int, GenericApiResponseBody) {
	var req verifyMessageRequest
	if err := decodeJsonBody(r, &req); err != nil {
		log.WithError(err).Debug("invalid request body")
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidJsonBody)
	}
	if req.Message == nil || len(req.Signature) == 0 || len(req.PublicKey) == 0 {
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errMissingFields)
	}

	pub, err := solana.ParsePublicKey(req.PublicKey)
	if err != nil {
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidPublicKey)
	}

	sig, err := solana.ParseSignature(req.Signature)
	switch {
	case errors.Is(err, solana.ErrDecode):
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidSigFormat)
	case err != nil:
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidSignature)
	}

	return http.StatusOK, NewGenericApiSuccessResponseBody(verifyView{
		Valid:     solana.Verify(pub, []byte(*req.Message), sig),
		Message:   *req.Message,
		PublicKey: req.PublicKey,
	})
}

func (s *Server) deriveHandler(r *http.Request, log *logrus.Entry) (int, GenericApiResponseBody) {
	var req deriveRequest
	if err := decodeJsonBody(r, &req); err != nil {
		log.WithError(err).Debug("invalid request body")
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidJsonBody)
	}
	if len(req.ProgramID) == 0 {
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errMissingFields)
	}

	program, err := solana.ParsePublicKey(req.ProgramID)
	if err != nil {
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidProgramID)
	}

	seeds := make([][]byte, len(req.Seeds))
	for i, encoded := range req.Seeds {
		seeds[i], err = solana.DecodeBase64(encoded)
		if err != nil {
			return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidSeed)
		}
	}

	addr, bump, err := solana.FindProgramAddressAndBump(program, seeds...)
	switch {
	case errors.Is(err, solana.ErrNoValidAddress):
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errNoValidAddress)
	case errors.Is(err, solana.ErrTooManySeeds), errors.Is(err, solana.ErrMaxSeedLengthExceeded):
		return http.StatusBadRequest, NewGenericApiFailureResponseBody(errInvalidSeeds)
	case err != nil:
		log.WithError(err).Warn("failure deriving program address")
		return http.StatusInternalServerError, NewGenericApiFailureResponseBody(errInternal)
	}

	return http.StatusOK, NewGenericApiSuccessResponseBody(deriveView{
		Address: solana.EncodeBase58(addr),
		Bump:    bump,
	})
}

func (s *Server) GetHandlers() map[string]http.HandlerFunc {
	signHandler := s.handle(signMessagePath, http.MethodPost, true, s.signMessageHandler)
	verifyHandler := s.handle(verifyMessagePath, http.MethodPost, true, s.verifyMessageHandler)
	sendSolHandler := s.handle(sendSolPath, http.MethodPost, true, s.sendSolHandler)
	sendTokenHandler := s.handle(sendTokenPath, http.MethodPost, true, s.sendTokenHandler)

	return map[string]http.HandlerFunc{
		healthPath:        s.handle(healthPath, http.MethodGet, false, s.healthHandler),
		keypairPath:       s.handle(keypairPath, http.MethodPost, true, s.keypairHandler),
		createTokenPath:   s.handle(createTokenPath, http.MethodPost, true, s.createTokenHandler),
		mintTokenPath:     s.handle(mintTokenPath, http.MethodPost, true, s.mintTokenHandler),
		signMessagePath:   signHandler,
		signAliasPath:     signHandler,
		verifyMessagePath: verifyHandler,
		verifyAliasPath:   verifyHandler,
		sendSolPath:       sendSolHandler,
		sendSolAliasPath:  sendSolHandler,
		sendTokenPath:     sendTokenHandler,
		sendTokenAlias:    sendTokenHandler,
		derivePath:        s.handle(derivePath, http.MethodPost, true, s.deriveHandler),
	}
}

// RegisterWithHTTP installs every route on mux.
func (s *Server) RegisterWithHTTP(mux *http.ServeMux) {
	for path, handler := range s.GetHandlers() {
		mux.HandleFunc(path, handler)
	}
}

// Handler returns an http.Handler serving every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterWithHTTP(mux)
	return mux
}
