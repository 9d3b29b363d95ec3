package inventory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// ReservationTTL is how long a reservation is valid before auto-expiring
	ReservationTTL = 5 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = 30 * time.Second
)

// MemoryStore implements Store with in-memory storage.
type MemoryStore struct {
	mu           sync.RWMutex
	stocks       map[string]*StockInfo    // productID -> stock info
	reservations map[string]*Reservation  // reservationID -> reservation

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		stocks:       make(map[string]*StockInfo),
		reservations: make(map[string]*Reservation),
		stopCleanup:  make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireReservations()
		case <-s.stopCleanup:
			return
		}
	}
}

// expireReservations finds and expires all reservations past their TTL.
func (s *MemoryStore) expireReservations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reservation := range s.reservations {
		if reservation.Status == StatusReserved && reservation.IsExpired() {
			reservation.Status = StatusExpired
			for _, item := range reservation.Items {
				s.stocks[item.ProductID].Reserved -= item.Quantity
			}
		}
	}
}

func (s *MemoryStore) GetStock(productIDs []string) ([]StockInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]StockInfo, 0, len(productIDs))
	for _, id := range productIDs {
		if stock, exists := s.stocks[id]; exists {
			result = append(result, *stock)
		}
	}
	return result, nil
}

// Reserve validates every line against the available pool before holding any
// stock, so a failed reservation leaves the pool untouched.
func (s *MemoryStore) Reserve(orderID string, items []ReservationItem) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		stock, exists := s.stocks[item.ProductID]
		if !exists {
			return nil, ErrProductNotFound
		}
		if stock.Available() < item.Quantity {
			return nil, ErrInsufficientStock
		}
	}

	for _, item := range items {
		s.stocks[item.ProductID].Reserved += item.Quantity
	}

	now := time.Now()
	reservation := &Reservation{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		Items:     items,
		Status:    StatusReserved,
		CreatedAt: now,
		ExpiresAt: now.Add(ReservationTTL),
	}

	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (s *MemoryStore) Confirm(reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[reservationID]
	if !exists {
		return ErrReservationNotFound
	}

	if reservation.Status != StatusReserved {
		return ErrInvalidStatus
	}

	if reservation.IsExpired() {
		return ErrReservationExpired
	}

	// Deduct from total stock (reserved already holds the quantity)
	for _, item := range reservation.Items {
		stock := s.stocks[item.ProductID]
		stock.Total -= item.Quantity
		stock.Reserved -= item.Quantity
	}

	reservation.Status = StatusConfirmed
	return nil
}

func (s *MemoryStore) Release(reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[reservationID]
	if !exists {
		return ErrReservationNotFound
	}

	if reservation.Status != StatusReserved {
		return ErrInvalidStatus
	}

	for _, item := range reservation.Items {
		s.stocks[item.ProductID].Reserved -= item.Quantity
	}

	reservation.Status = StatusReleased
	return nil
}

func (s *MemoryStore) SetStock(productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stocks[productID] = &StockInfo{
		ProductID: productID,
		Total:     quantity,
		Reserved:  0,
	}
	return nil
}

// Close stops the background cleanup and waits for it to finish.
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
