package statusapi

import "net/http"

// NodeTableView is the minimal surface statusapi needs from a
// hive.NodeTable, kept decoupled so this package never imports hive.
type NodeTableView interface {
	ListAll() []NodeView
}

// NodeView is one row of a GET /nodes response.
type NodeView struct {
	FriendlyName           string `json:"friendly_name"`
	IPAddress              string `json:"ip_address"`
	PortNumber             int    `json:"port_number"`
	Status                 string `json:"status"`
	HasHeartbeat           bool   `json:"has_heartbeat"`
	FailedConnectionCount  int    `json:"failed_connection_count"`
	IsLocalNode            bool   `json:"is_local_node"`
}

// QueueView is the minimal surface statusapi needs from a
// hive.MessageQueue.
type QueueView interface {
	Name() string
	Len() int
}

// RegisterNodesHandler wires GET /nodes to return the current table.
func RegisterNodesHandler(s *Server, table NodeTableView) {
	s.HandleFunc(http.MethodGet, "/nodes", func(c *Ctx) {
		c.JSON(http.StatusOK, H{"nodes": table.ListAll()})
	})
}

// RegisterQueuesHandler wires GET /queues to return queue depths.
func RegisterQueuesHandler(s *Server, queues ...QueueView) {
	s.HandleFunc(http.MethodGet, "/queues", func(c *Ctx) {
		out := make([]H, 0, len(queues))
		for _, q := range queues {
			out = append(out, H{"name": q.Name(), "depth": q.Len()})
		}
		c.JSON(http.StatusOK, H{"queues": out})
	})
}
