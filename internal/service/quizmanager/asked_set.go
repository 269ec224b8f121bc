package quizmanager

// AskedSet - множество ID уже заданных вопросов с сохранением порядка вставки.
// В снимок сессии попадает через IDs.
type AskedSet struct {
	order []uint
	index map[uint]struct{}
}

// NewAskedSet создает множество из списка ID, дубликаты отбрасываются
func NewAskedSet(ids ...uint) *AskedSet {
	s := &AskedSet{index: make(map[uint]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add добавляет ID. Возвращает false, если ID уже был в множестве
func (s *AskedSet) Add(id uint) bool {
	if s.index == nil {
		s.index = make(map[uint]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Contains проверяет наличие ID
func (s *AskedSet) Contains(id uint) bool {
	_, ok := s.index[id]
	return ok
}

// Len возвращает количество элементов
func (s *AskedSet) Len() int {
	return len(s.order)
}

// Clear очищает множество
func (s *AskedSet) Clear() {
	s.order = nil
	s.index = make(map[uint]struct{})
}

// IDs возвращает копию ID в порядке добавления
func (s *AskedSet) IDs() []uint {
	out := make([]uint, len(s.order))
	copy(out, s.order)
	return out
}
