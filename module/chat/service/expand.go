package service

import (
	"context"

	"PTalk/module/chat/store"
	usermodel "PTalk/module/user/model"
)

// briefs resolves ids to display records in one store round trip. Ids that
// no longer resolve are left out.
func briefs(ctx context.Context, st store.UserStore, ids []string) (map[string]usermodel.Brief, error) {
	users, err := st.FindUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]usermodel.Brief, len(users))
	for _, u := range users {
		out[u.ID] = u.Brief()
	}
	return out, nil
}

func pick(all map[string]usermodel.Brief, ids []string) []usermodel.Brief {
	out := make([]usermodel.Brief, 0, len(ids))
	for _, id := range ids {
		if b, ok := all[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

func uniqueIDs(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range groups {
		for _, id := range g {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
