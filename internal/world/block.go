package world

// Block определяет контракт типа данных, который хранится в мире.
// Значение по умолчанию (нулевое значение типа) заполняет новые чанки.
type Block interface {
	// Occludes возвращает грани, через которые значение полностью
	// перекрывает видимость соседей.
	Occludes() Occlusion
}

// hides возвращает true, если сосед закрывает грань face блока
func hides[T Block](neighbor T, face Face) bool {
	return neighbor.Occludes().Has(face.Opposite())
}
