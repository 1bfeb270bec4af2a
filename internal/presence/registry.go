package presence

import (
	"sync"

	"carelink/pkg/types"
)

// Registry tracks which platform users are currently online
// ARCHITECTURAL DISCOVERY: Role-bucketed maps give O(1) per-user updates
// and cheap per-role counts for the dashboard without scanning the list
type Registry struct {
	mu     sync.RWMutex
	users  map[string]*types.OnlineUser            // userID -> entry
	byRole map[string]map[string]*types.OnlineUser // role -> userID -> entry
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[string]*types.OnlineUser),
		byRole: make(map[string]map[string]*types.OnlineUser),
	}
}

// Replace swaps the whole online list, as delivered by a users-online event.
// Entries without a usable ID are skipped.
func (r *Registry) Replace(list []types.OnlineUser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[string]*types.OnlineUser, len(list))
	r.byRole = make(map[string]map[string]*types.OnlineUser)

	for i := range list {
		u := list[i]
		if u.ID == "" {
			continue
		}
		if u.Status == "" {
			u.Status = "online"
		}
		r.users[u.ID] = &u
		if r.byRole[u.Role] == nil {
			r.byRole[u.Role] = make(map[string]*types.OnlineUser)
		}
		r.byRole[u.Role][u.ID] = &u
	}
}

// SetStatus updates one user's presence status; no-op if the user is not
// in the current online list.
func (r *Registry) SetStatus(userID, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, exists := r.users[userID]; exists {
		u.Status = status
	}
}

// List returns a copy of the current online users.
func (r *Registry) List() []types.OnlineUser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.OnlineUser, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out
}

// Clear empties the registry; used at disconnect and teardown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[string]*types.OnlineUser)
	r.byRole = make(map[string]map[string]*types.OnlineUser)
}

// Stats returns online totals for the dashboard surface.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := map[string]int{
		"total_online":    len(r.users),
		"doctors_online":  len(r.byRole[types.RoleDoctor]),
		"patients_online": len(r.byRole[types.RolePatient]),
		"admins_online":   len(r.byRole[types.RoleAdmin]),
	}
	return stats
}
