package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/models"
	"github.com/wfunc/flashfive/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer creates a new RPC server listening on addr.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Register publishes the admin methods under the "AdminService" name.
func (s *Server) Register(admin *services.AdminService) error {
	return s.rpc.RegisterName("AdminService", NewAdminService(admin))
}

// Addr is the address actually bound, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService is the struct that exposes RPC methods. Each method follows the
// net/rpc signature: exported arguments, a pointer reply, an error result.
type AdminService struct {
	admin *services.AdminService
}

func NewAdminService(admin *services.AdminService) *AdminService {
	return &AdminService{admin: admin}
}

// Request carries no parameters beyond the caller's name, used in logs.
type Request struct {
	Caller string
}

type Ack struct {
	OK bool
}

type CatalogReply struct {
	Catalog models.Catalog
}

type ExportReply struct {
	Data []byte
}

type ImportArgs struct {
	Data []byte
}

type UpdateLabelArgs struct {
	CategoryID int
	Kind       string
	Index      int
	Label      string
}

type UpdateLabelReply struct {
	Changed bool
}

type UpdateImageArgs struct {
	CategoryID int
	ImageData  string
}

func (a *AdminService) GetCatalog(args *Request, reply *CatalogReply) error {
	reply.Catalog = a.admin.Catalog()
	return nil
}

func (a *AdminService) Export(args *Request, reply *ExportReply) error {
	data, err := a.admin.Export()
	if err != nil {
		return err
	}
	reply.Data = data
	return nil
}

func (a *AdminService) Import(args *ImportArgs, reply *CatalogReply) error {
	c, err := a.admin.Import(args.Data)
	if err != nil {
		return err
	}
	reply.Catalog = c
	return nil
}

func (a *AdminService) UpdateLabel(args *UpdateLabelArgs, reply *UpdateLabelReply) error {
	changed, err := a.admin.UpdateLabel(args.CategoryID, models.ObjectKind(args.Kind), args.Index, args.Label)
	reply.Changed = changed
	return err
}

func (a *AdminService) UpdateImage(args *UpdateImageArgs, reply *Ack) error {
	if err := a.admin.UpdateImage(args.CategoryID, args.ImageData); err != nil {
		return err
	}
	reply.OK = true
	return nil
}

func (a *AdminService) Reset(args *Request, reply *CatalogReply) error {
	logger.Log.Infof("Catalog reset requested over RPC by %q", args.Caller)
	c, err := a.admin.Reset()
	if err != nil {
		return err
	}
	reply.Catalog = c
	return nil
}
