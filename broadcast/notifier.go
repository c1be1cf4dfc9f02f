package broadcast

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wfunc/flashfive/catalog"
	"github.com/wfunc/flashfive/game"
	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/models"
	"github.com/wfunc/flashfive/network"
)

// UploadedImagePath is where the admin API serves a category's uploaded image.
// Uploads are too large for a packet, so clients are pointed there instead.
func UploadedImagePath(categoryID int) string {
	return fmt.Sprintf("/api/categories/%d/image", categoryID)
}

// Notifier forwards one game session's events to its connection.
type Notifier struct {
	broadcaster Broadcaster
	sessionID   string

	mutex      sync.Mutex
	categoryID int
}

var _ game.Listener = (*Notifier)(nil)

func NewNotifier(broadcaster Broadcaster, sessionID string) *Notifier {
	return &Notifier{broadcaster: broadcaster, sessionID: sessionID}
}

func (n *Notifier) send(msgID uint16, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("Failed to marshal message %d: %v", msgID, err)
		return
	}
	if err := n.broadcaster.SendToSession(n.sessionID, msgID, data); err != nil {
		logger.Log.Warnf("Failed to send message %d to session %s: %v", msgID, n.sessionID, err)
	}
}

func (n *Notifier) imageSource(source string, fallback bool) string {
	if fallback || !catalog.IsImageDataURL(source) {
		return source
	}
	n.mutex.Lock()
	id := n.categoryID
	n.mutex.Unlock()
	return UploadedImagePath(id)
}

func (n *Notifier) OnPhaseChange(snapshot game.Snapshot) {
	n.mutex.Lock()
	n.categoryID = snapshot.CategoryID
	n.mutex.Unlock()

	snapshot.ImageSource = n.imageSource(snapshot.ImageSource, snapshot.ImageFallback)
	n.send(network.MsgTypePhase, snapshot)
}

func (n *Notifier) OnImageReady(source string, fallback bool) {
	n.send(network.MsgTypeImage, network.ImageMessage{
		Source:   n.imageSource(source, fallback),
		Fallback: fallback,
	})
}

func (n *Notifier) OnTick(remaining int) {
	n.send(network.MsgTypeTick, network.TickMessage{Remaining: remaining})
}

func (n *Notifier) OnSelectionChange(selected []string) {
	n.send(network.MsgTypeSelection, network.SelectionMessage{Selected: selected})
}

func (n *Notifier) OnResults(result models.RoundResult) {
	n.send(network.MsgTypeResults, result)
}

func (n *Notifier) OnGameOver(summary models.GameOverSummary) {
	n.send(network.MsgTypeGameOver, summary)
}
