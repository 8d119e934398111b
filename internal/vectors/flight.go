package vectors

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/23skdu/longbow-bodkin/internal/logger"
)

// Flight transport for vector corpora.  A server holds named corpora
// and streams them as record batches; DoGet tickets carry the corpus
// name.

// FlightServer serves vector corpora over Arrow Flight.
type FlightServer struct {
	flight.BaseFlightServer

	srv     flight.Server
	corpora map[string][]Vector
}

// NewFlightServer creates a server holding the given corpora.
func NewFlightServer(corpora map[string][]Vector) *FlightServer {
	return &FlightServer{corpora: corpora}
}

// Start begins listening on addr; use Addr to find the bound address.
func (s *FlightServer) Start(addr string) error {
	srv := flight.NewServerWithMiddleware(nil)
	if err := srv.Init(addr); err != nil {
		return fmt.Errorf("initialising flight server: %w", err)
	}
	srv.RegisterFlightService(s)
	s.srv = srv

	go func() {
		if err := srv.Serve(); err != nil {
			logger.Log.Error("flight server stopped", "error", err)
		}
	}()
	logger.Log.Info("flight server listening", "addr", srv.Addr().String())
	return nil
}

// Addr returns the bound address.
func (s *FlightServer) Addr() string {
	return s.srv.Addr().String()
}

// Stop shuts the server down.
func (s *FlightServer) Stop() {
	if s.srv != nil {
		s.srv.Shutdown()
	}
}

// DoGet streams the corpus named by the ticket.
func (s *FlightServer) DoGet(tkt *flight.Ticket, fs flight.FlightService_DoGetServer) error {
	name := string(tkt.GetTicket())
	vecs, ok := s.corpora[name]
	if !ok {
		return fmt.Errorf("no corpus named %q", name)
	}

	w := flight.NewRecordWriter(fs, ipc.WithSchema(Schema))
	defer w.Close()

	rec := ToRecord(vecs)
	defer rec.Release()

	return w.Write(rec)
}

// FetchCorpus retrieves a named corpus from a Flight server.
func FetchCorpus(ctx context.Context, addr, name string) ([]Vector, error) {
	client, err := flight.NewClientWithMiddleware(addr, nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to flight server: %w", err)
	}
	defer client.Close()

	stream, err := client.DoGet(ctx, &flight.Ticket{Ticket: []byte(name)})
	if err != nil {
		return nil, fmt.Errorf("DoGet %q: %w", name, err)
	}

	rdr, err := flight.NewRecordReader(stream)
	if err != nil {
		return nil, fmt.Errorf("opening record reader: %w", err)
	}
	defer rdr.Release()

	var out []Vector
	for rdr.Next() {
		vecs, err := FromRecord(rdr.Record())
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("reading stream: %w", err)
	}
	return out, nil
}
