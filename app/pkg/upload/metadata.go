package upload

import "github.com/onetake/mediaupload/app/models"

// ResolvePostRequest 每个字段按 finalize 覆盖值、init 草稿、默认值的顺序取第一个非空
func ResolvePostRequest(session *models.UploadSession, overrides *models.FinalizeUploadReq) models.CreatePostReq {
	if overrides == nil {
		overrides = &models.FinalizeUploadReq{}
	}
	ret := models.CreatePostReq{
		ContentText: "",
		Tags:        []string{},
		Visibility:  models.VisibilityPublic,
	}

	switch {
	case overrides.ContentText != nil:
		ret.ContentText = *overrides.ContentText
	case session.DraftText != nil:
		ret.ContentText = *session.DraftText
	}

	switch {
	case overrides.Tags != nil:
		ret.Tags = append([]string{}, overrides.Tags...)
	case session.DraftTags != nil:
		ret.Tags = append([]string{}, session.DraftTags...)
	}

	switch {
	case overrides.Visibility != nil:
		ret.Visibility = *overrides.Visibility
	case session.DraftVisibility != nil:
		ret.Visibility = *session.DraftVisibility
	}
	return ret
}
