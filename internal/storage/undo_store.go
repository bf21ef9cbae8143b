package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// MaxJournalNodes bounds the edit journal of one restaurant.
const MaxJournalNodes = 40

// UndoNode is a single entry of the edit journal.
type UndoNode struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurantId"`
	ParentID     *string   `json:"parentId"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Snapshot decodes the configuration captured by the node.
func (n UndoNode) Snapshot() (*domain.SiteConfiguration, error) {
	var cfg domain.SiteConfiguration
	if err := json.Unmarshal([]byte(n.SnapshotJSON), &cfg); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", n.ID, err)
	}
	return &cfg, nil
}

// UndoTree is the journal of one restaurant.
type UndoTree struct {
	Nodes     []UndoNode `json:"nodes"`
	CurrentID string     `json:"currentId"`
	RootID    string     `json:"rootId"`
}

// UndoStore keeps the edit journal of every open editing session in SQLite so
// the history survives a restart of the tool server.
type UndoStore struct {
	db  *DB
	now func() time.Time
}

func NewUndoStore(db *DB) *UndoStore {
	return &UndoStore{db: db, now: time.Now}
}

// LoadTree returns the journal for a restaurant, or nil when there is none.
func (s *UndoStore) LoadTree(ctx context.Context, restaurantID string) (*UndoTree, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, restaurant_id, parent_id, label, snapshot_json, created_at
		 FROM undo_nodes WHERE restaurant_id = ? ORDER BY created_at ASC, rowid ASC`, restaurantID,
	)
	if err != nil {
		return nil, fmt.Errorf("load undo nodes: %w", err)
	}
	defer rows.Close()

	var nodes []UndoNode
	var rootID string
	for rows.Next() {
		var n UndoNode
		if err := rows.Scan(&n.ID, &n.RestaurantID, &n.ParentID, &n.Label, &n.SnapshotJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan undo node: %w", err)
		}
		if n.ParentID == nil && rootID == "" {
			rootID = n.ID
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	currentID := rootID
	err = s.db.Conn().QueryRowContext(ctx,
		`SELECT current_node_id FROM undo_state WHERE restaurant_id = ?`, restaurantID,
	).Scan(&currentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load undo state: %w", err)
	}

	return &UndoTree{Nodes: nodes, CurrentID: currentID, RootID: rootID}, nil
}

// Push records snapshot as a child of parentID (a root when empty), moves the
// current pointer to it, and prunes the oldest nodes beyond MaxJournalNodes.
func (s *UndoStore) Push(ctx context.Context, restaurantID, parentID, label string, snapshot *domain.SiteConfiguration) (*UndoNode, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	node := &UndoNode{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		Label:        label,
		SnapshotJSON: string(raw),
		CreatedAt:    s.now().UTC(),
	}
	if parentID != "" {
		node.ParentID = &parentID
	}

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin push: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO undo_nodes (id, restaurant_id, parent_id, label, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		node.ID, restaurantID, node.ParentID, label, node.SnapshotJSON, node.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert undo node: %w", err)
	}
	if err := setCurrent(ctx, tx, restaurantID, node.ID); err != nil {
		return nil, err
	}
	if err := prune(ctx, tx, restaurantID, node.ID, MaxJournalNodes); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit push: %w", err)
	}
	return node, nil
}

// GoTo moves the current position pointer.
func (s *UndoStore) GoTo(ctx context.Context, restaurantID, nodeID string) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin goto: %w", err)
	}
	defer tx.Rollback()
	if err := setCurrent(ctx, tx, restaurantID, nodeID); err != nil {
		return err
	}
	return tx.Commit()
}

// Clear removes the whole journal of a restaurant.
func (s *UndoStore) Clear(ctx context.Context, restaurantID string) error {
	if _, err := s.db.Conn().ExecContext(ctx, `DELETE FROM undo_state WHERE restaurant_id = ?`, restaurantID); err != nil {
		return fmt.Errorf("clear undo state: %w", err)
	}
	if _, err := s.db.Conn().ExecContext(ctx, `DELETE FROM undo_nodes WHERE restaurant_id = ?`, restaurantID); err != nil {
		return fmt.Errorf("clear undo nodes: %w", err)
	}
	return nil
}

func setCurrent(ctx context.Context, tx *sql.Tx, restaurantID, nodeID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO undo_state (restaurant_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(restaurant_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		restaurantID, nodeID,
	)
	if err != nil {
		return fmt.Errorf("update undo state: %w", err)
	}
	return nil
}

// prune drops the oldest nodes beyond maxNodes, re-parenting their children so
// the tree stays connected. The current node is never dropped.
func prune(ctx context.Context, tx *sql.Tx, restaurantID, currentID string, maxNodes int) error {
	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM undo_nodes WHERE restaurant_id = ?`, restaurantID).Scan(&count); err != nil {
		return fmt.Errorf("count undo nodes: %w", err)
	}
	if count <= maxNodes {
		return nil
	}

	// Collect ids first; the single SQLite connection cannot interleave writes with an open cursor.
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM undo_nodes WHERE restaurant_id = ?
		 ORDER BY created_at ASC, rowid ASC LIMIT ?`, restaurantID, count-maxNodes,
	)
	if err != nil {
		return fmt.Errorf("select prunable nodes: %w", err)
	}
	var victims []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan prunable node: %w", err)
		}
		if id != currentID {
			victims = append(victims, id)
		}
	}
	rows.Close()

	for _, id := range victims {
		// Reload the parent: an earlier victim may have been this node's parent.
		var parent sql.NullString
		if err := tx.QueryRowContext(ctx, `SELECT parent_id FROM undo_nodes WHERE id = ?`, id).Scan(&parent); err != nil {
			return fmt.Errorf("reload undo node: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE undo_nodes SET parent_id = ? WHERE parent_id = ?`, parent, id); err != nil {
			return fmt.Errorf("reparent undo nodes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM undo_nodes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete undo node: %w", err)
		}
	}
	return nil
}
