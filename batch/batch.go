package batch

import "github.com/gogpu/batch2d/gpucore"

// Batch is an ordered group of commands drawn with one draw call, plus
// the image to texture-slot table of that draw call.
//
// Batch is not safe for concurrent use.
type Batch struct {
	commands    []*Command
	capacity    int
	maxTextures int

	slots  map[*Image]int
	images []*Image // by slot
}

// NewBatch creates a batch holding up to capacity commands and
// maxTextures distinct images.
func NewBatch(capacity, maxTextures int) *Batch {
	return &Batch{
		commands:    make([]*Command, 0, capacity),
		capacity:    capacity,
		maxTextures: maxTextures,
		slots:       make(map[*Image]int, maxTextures),
		images:      make([]*Image, 0, maxTextures),
	}
}

// Add appends cmd. It returns false, leaving the batch unchanged, when
// the batch is full.
func (b *Batch) Add(cmd *Command) bool {
	if len(b.commands) >= b.capacity {
		return false
	}
	b.commands = append(b.commands, cmd)
	return true
}

// TextureSlot returns the slot of img in this batch, assigning the next
// free slot on first use. It returns false when img is new and every slot
// is taken; the batch must then be flushed before img can be admitted.
func (b *Batch) TextureSlot(img *Image) (int, bool) {
	if slot, ok := b.slots[img]; ok {
		return slot, true
	}
	if len(b.images) >= b.maxTextures {
		return 0, false
	}
	slot := len(b.images)
	b.slots[img] = slot
	b.images = append(b.images, img)
	return slot, true
}

// BindTextures binds every assigned image to the texture unit equal to its
// slot, in slot order.
func (b *Batch) BindTextures(device gpucore.Device) {
	for slot, img := range b.images {
		device.BindTexture(slot, img.id)
	}
}

// Reset empties the batch and its slot table.
func (b *Batch) Reset() {
	clear(b.commands)
	b.commands = b.commands[:0]
	clear(b.slots)
	clear(b.images)
	b.images = b.images[:0]
}

// Len returns the number of commands.
func (b *Batch) Len() int { return len(b.commands) }

// Cap returns the command capacity.
func (b *Batch) Cap() int { return b.capacity }

// Full reports whether no more commands fit.
func (b *Batch) Full() bool { return len(b.commands) >= b.capacity }

// Commands returns the commands in admission order. The slice is only
// valid until Reset.
func (b *Batch) Commands() []*Command { return b.commands }

// TextureCount returns the number of assigned texture slots.
func (b *Batch) TextureCount() int { return len(b.images) }
