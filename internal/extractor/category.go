package extractor

import "github.com/sanosuguru/go-pickleball-events/internal/domain/event"

// CategoryTable は取得元のカテゴリIDと内部カテゴリの対応表
type CategoryTable map[int]event.Category

// DefaultJPACategories はJPAサイトのカテゴリIDの対応表
func DefaultJPACategories() CategoryTable {
	return CategoryTable{
		3: event.CategoryTournament,
		4: event.CategoryExperience,
		5: event.CategoryWorkshop,
		6: event.CategoryCertification,
	}
}

// CategoryResolver はカテゴリIDを内部カテゴリに変換する
type CategoryResolver struct {
	table CategoryTable
}

// NewCategoryResolver は対応表を複製して CategoryResolver を作成する
func NewCategoryResolver(table CategoryTable) *CategoryResolver {
	copied := make(CategoryTable, len(table))
	for id, c := range table {
		copied[id] = c
	}
	return &CategoryResolver{table: copied}
}

// Resolve は最初に対応表にヒットしたIDのカテゴリを返す。どれもなければ other
func (r *CategoryResolver) Resolve(ids []int) event.Category {
	for _, id := range ids {
		if c, ok := r.table[id]; ok {
			return c
		}
	}
	return event.CategoryOther
}

