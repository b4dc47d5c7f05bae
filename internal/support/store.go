package support

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tam-chat/internal/logger"
)

var log = logger.Named("support")

const DefaultDir = "data"

// 每类记录对应 dir 下的一个 JSON 数组文件。
const (
	customersFile     = "customers.json"
	ticketsFile       = "tickets.json"
	blockRequestsFile = "block_requests.json"
	developersFile    = "developers.json"
	appLogsFile       = "app_logs.json"
)

type Customer struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Plan       string `json:"plan,omitempty"`
	Status     string `json:"status,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type Developer struct {
	DeveloperID   string   `json:"developer_id"`
	Name          string   `json:"name,omitempty"`
	AccountStatus string   `json:"account_status,omitempty"`
	BlockReason   string   `json:"block_reason,omitempty"`
	Apps          []string `json:"apps"`
	Notes         string   `json:"notes,omitempty"`
}

type Ticket struct {
	TicketID    string     `json:"ticket_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority,omitempty"`
	CustomerID  string     `json:"customer_id,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type BlockRequest struct {
	RequestID      string    `json:"request_id"`
	DeveloperID    string    `json:"developer_id"`
	Reason         string    `json:"reason"`
	AdditionalInfo string    `json:"additional_info,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type AppLog struct {
	AppID        string `json:"app_id"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	Timestamp    string `json:"timestamp"`
	Severity     string `json:"severity,omitempty"`
}

// Store 是 TAM 支持数据（客户、开发者、工单、解封请求、应用日志）的 JSON 文件存储。
// 同一进程内的读改写由 mu 串行化。
type Store struct {
	Dir string
	Now func() time.Time

	mu sync.Mutex
}

// Open 创建目录并补齐缺失的数据文件（空数组）。
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create support dir: %w", err)
	}
	s := &Store{Dir: dir}
	for _, name := range []string{customersFile, ticketsFile, blockRequestsFile, developersFile, appLogsFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := writeJSON(path, []any{}); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) path(name string) string { return filepath.Join(s.Dir, name) }

// Customer 返回 id 对应的客户；找不到时 ok 为 false。
func (s *Store) Customer(id string) (Customer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Customer
	if err := readJSON(s.path(customersFile), &all); err != nil {
		return Customer{}, false, err
	}
	for _, c := range all {
		if c.CustomerID == id {
			return c, true, nil
		}
	}
	return Customer{}, false, nil
}

func (s *Store) AddCustomer(c Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Customer
	if err := readJSON(s.path(customersFile), &all); err != nil {
		return err
	}
	return writeJSON(s.path(customersFile), append(all, c))
}

func (s *Store) Developer(id string) (Developer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Developer
	if err := readJSON(s.path(developersFile), &all); err != nil {
		return Developer{}, false, err
	}
	for _, d := range all {
		if d.DeveloperID == id {
			return d, true, nil
		}
	}
	return Developer{}, false, nil
}

func (s *Store) AddDeveloper(d Developer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Developer
	if err := readJSON(s.path(developersFile), &all); err != nil {
		return err
	}
	return writeJSON(s.path(developersFile), append(all, d))
}

// Tickets 返回全部工单；customerID 非空时只返回该客户的。
func (s *Store) Tickets(customerID string) ([]Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Ticket
	if err := readJSON(s.path(ticketsFile), &all); err != nil {
		return nil, err
	}
	if customerID == "" {
		return all, nil
	}
	out := make([]Ticket, 0, len(all))
	for _, t := range all {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) Ticket(id string) (Ticket, bool, error) {
	tickets, err := s.Tickets("")
	if err != nil {
		return Ticket{}, false, err
	}
	for _, t := range tickets {
		if t.TicketID == id {
			return t, true, nil
		}
	}
	return Ticket{}, false, nil
}

// CreateTicket 分配 TKT-NNNN 编号，状态置为 open。
func (s *Store) CreateTicket(t Ticket) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Ticket
	if err := readJSON(s.path(ticketsFile), &all); err != nil {
		return Ticket{}, err
	}
	t.TicketID = fmt.Sprintf("TKT-%04d", len(all)+1)
	t.Status = "open"
	t.CreatedAt = s.now()
	t.UpdatedAt = nil
	if err := writeJSON(s.path(ticketsFile), append(all, t)); err != nil {
		return Ticket{}, err
	}
	log.WithField("ticket_id", t.TicketID).Info("ticket created")
	return t, nil
}

func (s *Store) UpdateTicketStatus(id, status string) (Ticket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Ticket
	if err := readJSON(s.path(ticketsFile), &all); err != nil {
		return Ticket{}, false, err
	}
	for i := range all {
		if all[i].TicketID != id {
			continue
		}
		now := s.now()
		all[i].Status = status
		all[i].UpdatedAt = &now
		if err := writeJSON(s.path(ticketsFile), all); err != nil {
			return Ticket{}, false, err
		}
		return all[i], true, nil
	}
	return Ticket{}, false, nil
}

// BlockRequests 返回解封请求；developerID 非空时过滤。
func (s *Store) BlockRequests(developerID string) ([]BlockRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []BlockRequest
	if err := readJSON(s.path(blockRequestsFile), &all); err != nil {
		return nil, err
	}
	if developerID == "" {
		return all, nil
	}
	out := make([]BlockRequest, 0, len(all))
	for _, r := range all {
		if r.DeveloperID == developerID {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateBlockRequest 分配 REQ-NNNN 编号，状态置为 pending。
func (s *Store) CreateBlockRequest(r BlockRequest) (BlockRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []BlockRequest
	if err := readJSON(s.path(blockRequestsFile), &all); err != nil {
		return BlockRequest{}, err
	}
	r.RequestID = fmt.Sprintf("REQ-%04d", len(all)+1)
	r.Status = "pending"
	r.CreatedAt = s.now()
	if err := writeJSON(s.path(blockRequestsFile), append(all, r)); err != nil {
		return BlockRequest{}, err
	}
	log.WithField("request_id", r.RequestID).Info("unblock request created")
	return r, nil
}

// AppLogs 按 app_id 和 error_code（不区分大小写）查询日志。
func (s *Store) AppLogs(appID, errorCode string) ([]AppLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []AppLog
	if err := readJSON(s.path(appLogsFile), &all); err != nil {
		return nil, err
	}
	var out []AppLog
	for _, l := range all {
		if l.AppID == appID && strings.EqualFold(l.ErrorCode, errorCode) {
			out = append(out, l)
		}
	}
	return out, nil
}

// readJSON 文件缺失或内容损坏都按空数组处理。
func readJSON(path string, out any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.WithError(err).WithField("path", path).Warn("ignoring unreadable data file")
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".support-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
